package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/wikiart/pkg/llm"
)

// MockGenerator is a scripted llm.Generator.
type MockGenerator struct {
	// Reply is returned when no scripted error applies.
	Reply string

	// Errs is consumed one entry per call before falling back to Err. A nil
	// entry lets that call succeed.
	Errs []error

	// Err is returned by every call once Errs is exhausted.
	Err error

	// Block makes Generate wait for its context and fail with a timeout.
	Block bool

	HealthErr error

	mu      sync.Mutex
	prompts []string
}

func NewMockGenerator(reply string) *MockGenerator {
	return &MockGenerator{Reply: reply}
}

func (m *MockGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, req.Prompt)
	var err error
	if len(m.Errs) > 0 {
		err, m.Errs = m.Errs[0], m.Errs[1:]
	} else {
		err = m.Err
	}
	block := m.Block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, llm.TransportError(m.Name(), ctx.Err())
	}
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = "mock-model"
	}
	return &llm.GenerateResponse{Model: model, Text: m.Reply, StopReason: "stop"}, nil
}

func (m *MockGenerator) Health(context.Context) error {
	return m.HealthErr
}

func (m *MockGenerator) Name() string {
	return "mock"
}

// Calls is the number of Generate invocations.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns every prompt received, in order.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

var _ llm.Generator = (*MockGenerator)(nil)
