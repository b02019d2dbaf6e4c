package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

const mockModel = "mock"

// MockResponse is one scripted reply. Err, when set, is returned instead.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockJSON scripts a reply holding v encoded as JSON.
func MockJSON(v any) MockResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return MockResponse{Err: fmt.Errorf("mock: encode reply: %w", err)}
	}
	return MockResponse{Content: b}
}

// MockProvider replays scripted replies in order and records each request.
// Schema requests pass through the same extraction and validation as the
// vendor adapters, so a script can drive the invalid-output paths.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	Calls  []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

// Generate answers ErrProviderUnavailable once the script runs out.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	call := len(m.Calls)
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("mock: no reply scripted for call %d", call)}
	}
	next := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	if next.Content == nil {
		return nil, &ErrInvalidResponse{Err: errors.New("mock: empty reply")}
	}

	resp, err := reply{
		text:   string(next.Content),
		model:  mockModel,
		stop:   StopEnd,
		input:  next.Usage.InputTokens,
		output: next.Usage.OutputTokens,
	}.response(req)
	if err != nil {
		return nil, err
	}
	if next.Usage.TotalTokens != 0 {
		resp.Usage.TotalTokens = next.Usage.TotalTokens
	}
	return resp, nil
}

func (m *MockProvider) ModelID() string {
	return mockModel
}

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
