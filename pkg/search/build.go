// Package search builds the artwork index and answers similarity queries
// against it.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/vector"
)

const (
	defaultBatchSize   = 32
	defaultConcurrency = 4
)

// BuildConfig controls index construction.
type BuildConfig struct {
	Embedder embeddings.Embedder

	// BatchSize is the number of records per EmbedBatch call.
	BatchSize int

	// Concurrency bounds the number of batches encoded at once.
	Concurrency int

	// CatalogDigest is recorded in the index metadata.
	CatalogDigest string

	Logger *slog.Logger
}

// Build encodes every record's embedding text and returns an index whose
// positions follow record order. Batches run concurrently but results are
// placed by position, so the output does not depend on scheduling.
func Build(ctx context.Context, records []catalog.Artwork, cfg BuildConfig) (*vector.Index, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("build: no embedder configured")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	dims, err := cfg.Embedder.Dimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving encoder dimensions: %w", err)
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.EmbeddingText()
	}

	vectors := make([][]float32, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			vecs, err := cfg.Embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("encoding records %d-%d: %w", start, end-1, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("%w: encoder returned %d vectors for %d records",
					embeddings.ErrEncoding, len(vecs), end-start)
			}
			copy(vectors[start:end], vecs)
			log.Debug("encoded batch", "start", start, "end", end)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx, err := vector.NewIndex(vector.Meta{
		Model:         cfg.Embedder.Model(),
		Metric:        vector.MetricInnerProduct,
		Dimensions:    dims,
		CatalogDigest: cfg.CatalogDigest,
		BuiltAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	for i, r := range records {
		if err := idx.Add(r.ID, vectors[i]); err != nil {
			return nil, fmt.Errorf("adding %q: %w", r.Label(), err)
		}
	}

	return idx, nil
}
