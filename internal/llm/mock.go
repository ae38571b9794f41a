package llm

import (
	"context"
	"sync"
)

// MockProvider is a Provider for tests. Errors are returned in order, one per
// call, before falling back to the canned response.
type MockProvider struct {
	ProviderName string
	DefaultModel string
	Configured   bool
	Text         string
	Truncated    bool
	Errors       []error

	mu       sync.Mutex
	requests []Request
}

// NewMockProvider returns an available mock answering with text.
func NewMockProvider(name, text string) *MockProvider {
	return &MockProvider{ProviderName: name, DefaultModel: name + "-model", Configured: true, Text: text}
}

func (m *MockProvider) Name() string    { return m.ProviderName }
func (m *MockProvider) Model() string   { return m.DefaultModel }
func (m *MockProvider) Available() bool { return m.Configured }

func (m *MockProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	return m.respond(ctx, req)
}

func (m *MockProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	return m.respond(ctx, req)
}

// Calls returns how many requests the mock has received.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request.
func (m *MockProvider) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}
	}
	return m.requests[len(m.requests)-1]
}

func (m *MockProvider) respond(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, *req)
	if len(m.Errors) > 0 {
		err := m.Errors[0]
		m.Errors = m.Errors[1:]
		return nil, err
	}
	return &Response{Text: m.Text, Model: pickModel(req.Model, m.DefaultModel), Truncated: m.Truncated}, nil
}
