package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/wikiart/pkg/search"
)

// MockSearcher returns fixed results and counts queries.
type MockSearcher struct {
	Results []search.Result
	Err     error

	mu      sync.Mutex
	queries []string
}

func (m *MockSearcher) Search(_ context.Context, query string, k int) ([]search.Result, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if k < len(m.Results) {
		return m.Results[:k], nil
	}
	return m.Results, nil
}

// Queries returns the queries received, in order.
func (m *MockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.queries))
	copy(out, m.queries)
	return out
}
