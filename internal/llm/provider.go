package llm

import (
	"context"
	"encoding/json"
)

// Provider is one completion backend. The engine uses it twice: to turn a
// case description into a question bank and to grade free-text answers.
// Callers treat every error as recoverable and fall back to deterministic
// paths.
type Provider interface {
	// Generate runs one completion. With req.Schema set the reply is
	// extracted, validated and returned as JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	ModelID() string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Schema names the JSON document a reply must match. Name is the key under
// which the compiled form is cached, so it must be unique per Definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Request is a single completion call. A nil Schema asks for free text.
type Request struct {
	System   string
	Messages []Message
	Schema   *Schema

	MaxTokens int
	// Temperature is sent only when positive.
	Temperature float64
}

// UserPrompt builds the single-turn request every engine call uses.
func UserPrompt(system, user string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}

// Expect returns r asking for JSON matching s, with the given output
// limits.
func (r Request) Expect(s *Schema, maxTokens int, temperature float64) Request {
	r.Schema = s
	r.MaxTokens = maxTokens
	r.Temperature = temperature
	return r
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Response struct {
	// Content is the validated JSON document for schema requests and the
	// raw text otherwise.
	Content json.RawMessage
	Usage   Usage
	// Model is what the vendor reports having served, which may differ
	// from the configured alias.
	Model string
	// StopReason is StopEnd or StopMaxTokens.
	StopReason string
}
