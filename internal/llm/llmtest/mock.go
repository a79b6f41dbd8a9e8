// Package llmtest provides a scriptable llm.Client for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/jonathan/candidate-evaluator/internal/llm"
)

// MockClient implements llm.Client with overridable function fields.
// Calls are recorded so tests can inspect the prompts sent.
type MockClient struct {
	SendFunc     func(ctx context.Context, req llm.Request) (string, error)
	SendJSONFunc func(ctx context.Context, req llm.Request) (string, error)
	ModelFunc    func(tier llm.ModelTier) string
	CloseFunc    func() error

	mu    sync.Mutex
	calls []llm.Request
}

// Send implements llm.Client.
func (m *MockClient) Send(ctx context.Context, req llm.Request) (string, error) {
	m.record(req)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, req)
	}
	return "", nil
}

// SendJSON implements llm.Client.
func (m *MockClient) SendJSON(ctx context.Context, req llm.Request) (string, error) {
	m.record(req)
	if m.SendJSONFunc != nil {
		return m.SendJSONFunc(ctx, req)
	}
	return "{}", nil
}

// Model implements llm.Client.
func (m *MockClient) Model(tier llm.ModelTier) string {
	if m.ModelFunc != nil {
		return m.ModelFunc(tier)
	}
	return "mock-model"
}

// Close implements llm.Client.
func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns a copy of every request received.
func (m *MockClient) Calls() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.calls...)
}

func (m *MockClient) record(req llm.Request) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
}

// LastUserMessage returns the content of the final user message in req.
func LastUserMessage(req llm.Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == llm.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}
