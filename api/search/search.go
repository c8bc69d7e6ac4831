// Package search provides shared search types and logic for artwork
// retrieval. It is used by both the REST API endpoint and the MCP server tool.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/wikiart/pkg/search"
)

const (
	// DefaultTopK is used when a request does not set top_k.
	DefaultTopK = 5

	// MaxTopK bounds a single request.
	MaxTopK = 50
)

// Searcher is satisfied by *search.Retriever.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]search.Result, error)
}

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResult represents a single retrieved artwork.
type SearchResult struct {
	ID          string  `json:"id"`
	Rank        int     `json:"rank"`
	Score       float32 `json:"score"`
	Label       string  `json:"label"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist,omitempty"`
	Year        string  `json:"year,omitempty"`
	Style       string  `json:"style,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// ClampTopK maps a non-positive k to DefaultTopK and caps it at MaxTopK.
func ClampTopK(k int) int {
	switch {
	case k <= 0:
		return DefaultTopK
	case k > MaxTopK:
		return MaxTopK
	}
	return k
}

// Search runs a retrieval and converts the ranked artworks for output. topK
// goes through ClampTopK first.
func Search(ctx context.Context, searcher Searcher, query string, topK int, logger *slog.Logger) (*SearchOutput, error) {
	topK = ClampTopK(topK)

	logger.Debug("search request", "query", query, "top_k", topK)

	results, err := searcher.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search artworks: %w", err)
	}

	return &SearchOutput{
		Query:   query,
		Results: Results(results),
		Count:   len(results),
	}, nil
}

// Results converts retrieval results for output.
func Results(results []search.Result) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		a := r.Artwork
		out = append(out, SearchResult{
			ID:          a.ID,
			Rank:        r.Rank,
			Score:       r.Score,
			Label:       a.Label(),
			Title:       a.Title,
			Artist:      a.Artist,
			Year:        a.Year,
			Style:       a.Style,
			Genre:       a.Genre,
			Description: a.Description,
			ImageURL:    a.ImageURL,
		})
	}
	return out
}
