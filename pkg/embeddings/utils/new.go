// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"time"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/embeddings/hashing"
	"github.com/papercomputeco/wikiart/pkg/embeddings/ollama"
	"github.com/papercomputeco/wikiart/pkg/embeddings/openai"
)

// Provider names accepted by NewEmbedder.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   int
	Timeout      time.Duration
}

// NewEmbedder builds the configured provider and wraps it with metrics.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	var (
		e   embeddings.Embedder
		err error
	)

	switch o.ProviderType {
	case ProviderOllama:
		e, err = ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
			Timeout:    o.Timeout,
		})
	case ProviderOpenAI:
		e, err = openai.NewEmbedder(openai.Config{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	case ProviderHashing:
		e, err = hashing.NewEmbedder(o.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}

	return Instrument(e, o.ProviderType), nil
}
