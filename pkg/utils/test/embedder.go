package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	// Embeddings maps normalized text to the vector returned for it.
	Embeddings map[string][]float32

	// Default is returned for text not in Embeddings.
	Default []float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// ModelName is reported by Model. Defaults to "mock".
	ModelName string

	mu    sync.Mutex
	calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	text = embeddings.Normalize(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", embeddings.ErrEncoding, embeddings.ErrEmptyText)
	}
	if m.FailOn != "" && strings.Contains(text, m.FailOn) {
		return nil, fmt.Errorf("%w: mock embedding failure for: %s", embeddings.ErrEncoding, text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}
	return m.Default, nil
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *MockEmbedder) Dimensions(context.Context) (int, error) {
	return len(m.Default), nil
}

func (m *MockEmbedder) Model() string {
	if m.ModelName == "" {
		return "mock"
	}
	return m.ModelName
}

// Calls is the number of texts embedded so far.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockEmbedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)
