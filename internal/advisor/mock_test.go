package advisor

import (
	"context"
	"sync"
)

// MockGenerator is a mock implementation of Generator for testing
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req Request) (string, error)

	mu       sync.Mutex
	requests []Request
}

func (m *MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", ErrEmptyResponse
}

func (m *MockGenerator) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

func respond(text string) func(context.Context, Request) (string, error) {
	return func(context.Context, Request) (string, error) {
		return text, nil
	}
}
