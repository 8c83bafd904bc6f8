package gateway

import (
	"context"
	"sync"
)

// MockGateway is a scripted Gateway for tests
type MockGateway struct {
	// Answers are returned in order; once exhausted, Answer is returned
	Answers []string
	Answer  string
	Err     error
	// Block, when non-nil, holds every Ask until it is closed or ctx is done
	Block chan struct{}
	// PanicWith, when non-nil, makes Ask panic with this value
	PanicWith any

	mu    sync.Mutex
	calls []string
}

// Ensure MockGateway implements Gateway
var _ Gateway = (*MockGateway)(nil)

// Ask records the query and returns the scripted result
func (m *MockGateway) Ask(ctx context.Context, query string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	n := len(m.calls)
	block := m.Block
	m.mu.Unlock()

	if m.PanicWith != nil {
		panic(m.PanicWith)
	}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.Err != nil {
		return "", m.Err
	}
	if n <= len(m.Answers) {
		return m.Answers[n-1], nil
	}
	return m.Answer, nil
}

// Calls returns the queries received so far
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Ask was called
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
