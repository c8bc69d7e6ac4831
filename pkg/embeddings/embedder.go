// Package embeddings
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrEncoding is returned when an embedding cannot be produced. It is
	// scoped to the request that triggered it.
	ErrEncoding = errors.New("encoding failed")

	// ErrEmptyText is returned, together with ErrEncoding, for input that is
	// empty after normalization.
	ErrEmptyText = errors.New("text is empty after normalization")
)

// Embedder provides text embedding capabilities. Implementations are
// deterministic for a fixed model and safe for concurrent use.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in order. It is equivalent to calling Embed for
	// each text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the length of the vectors this embedder produces.
	Dimensions(ctx context.Context) (int, error)

	// Model identifies the encoder configuration. Vectors from different
	// models must never share an index.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// Normalize trims text and collapses internal whitespace runs.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeAll normalizes every text, failing on the first one that ends up
// empty.
func NormalizeAll(texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
		if out[i] == "" {
			return nil, fmt.Errorf("%w: input %d: %w", ErrEncoding, i, ErrEmptyText)
		}
	}
	return out, nil
}

// L2Normalize scales v to unit length in place and returns it. Zero vectors
// are returned unchanged.
func L2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}

	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
