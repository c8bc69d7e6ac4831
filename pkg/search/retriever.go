package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/metrics"
)

// ErrInvalidTopK is returned for k < 1.
var ErrInvalidTopK = errors.New("top-k must be at least 1")

// Result is one ranked match. Scores are comparable only within a single
// query.
type Result struct {
	Artwork catalog.Artwork
	Score   float32
	Rank    int
}

// Retriever embeds queries with the same encoder used to build the index and
// searches the manager's active snapshot.
type Retriever struct {
	manager  *Manager
	embedder embeddings.Embedder
	log      *slog.Logger
}

// NewRetriever returns a retriever over m. It uses m's embedder.
func NewRetriever(m *Manager) *Retriever {
	return &Retriever{manager: m, embedder: m.cfg.Embedder, log: m.log}
}

// Search returns at most k results ordered by descending similarity, ties by
// catalog position. Hits whose position no longer maps to a catalog record
// are dropped.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Result, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, k)
	}

	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	snap, err := r.manager.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := snap.Index.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", embeddings.ErrEncoding, err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		art, ok := snap.Record(h)
		if !ok {
			r.log.Warn("dropping index hit without catalog record", "position", h.Position, "id", h.ID)
			continue
		}
		results = append(results, Result{Artwork: art, Score: h.Score, Rank: len(results) + 1})
	}

	return results, nil
}
