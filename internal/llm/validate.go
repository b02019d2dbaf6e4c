package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled holds *jsonschema.Schema by Schema.Name.
var compiled sync.Map

// Conform pulls the JSON object out of a model reply and checks it against
// schema. Failures are *ErrInvalidResponse carrying the raw reply.
func Conform(schema *Schema, raw json.RawMessage) (json.RawMessage, error) {
	obj := ExtractJSON(raw)
	if obj == nil {
		return nil, &ErrInvalidResponse{Content: raw, Err: errors.New("no JSON object in reply")}
	}
	if err := Validate(schema, obj); err != nil {
		return nil, &ErrInvalidResponse{Content: raw, Err: err}
	}
	return obj, nil
}

// Validate checks doc against schema. A nil schema accepts anything.
func Validate(schema *Schema, doc json.RawMessage) error {
	if schema == nil {
		return nil
	}
	v, err := decodeJSON(doc)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	s, err := compile(schema)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("schema %s: %s", schema.Name, firstLine(err))
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if s, ok := compiled.Load(schema.Name); ok {
		return s.(*jsonschema.Schema), nil
	}

	// Round-trip through JSON so typed Go slices become []any.
	raw, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, err
	}
	def, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}

	url := "schema://" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		return nil, err
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	actual, _ := compiled.LoadOrStore(schema.Name, s)
	return actual.(*jsonschema.Schema), nil
}

func decodeJSON(b []byte) (any, error) {
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

// firstLine keeps validation errors to one log-friendly line; the
// library lists every failing keyword below the first.
func firstLine(err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}

// structuredContent turns a reply into Response.Content. Free-text
// requests pass through; a truncated schema reply is never parsed.
func structuredContent(req Request, content json.RawMessage, stopReason string) (json.RawMessage, error) {
	switch {
	case req.Schema == nil:
		return content, nil
	case stopReason == StopMaxTokens:
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	return Conform(req.Schema, content)
}
