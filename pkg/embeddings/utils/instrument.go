package embeddingutils

import (
	"context"
	"time"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/metrics"
)

type instrumented struct {
	embeddings.Embedder
	provider string
}

// Instrument records request counts and latency for every Embed and
// EmbedBatch call made through e.
func Instrument(e embeddings.Embedder, provider string) embeddings.Embedder {
	return &instrumented{Embedder: e, provider: provider}
}

func (i *instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	v, err := i.Embedder.Embed(ctx, text)
	i.observe(start, err)
	return v, err
}

func (i *instrumented) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	v, err := i.Embedder.EmbedBatch(ctx, texts)
	i.observe(start, err)
	return v, err
}

func (i *instrumented) observe(start time.Time, err error) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(i.provider, metrics.Status(err)).Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(i.provider).Observe(time.Since(start).Seconds())
}
