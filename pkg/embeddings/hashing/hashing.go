// Package hashing implements an offline embeddings.Embedder that projects
// word and word-pair features into a fixed number of buckets.
package hashing

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
)

const (
	// DefaultDimensions is used when the configured dimension count is zero.
	DefaultDimensions = 512

	// ModelName identifies vectors produced by this embedder.
	ModelName = "hashing-v1"

	bigramWeight = 0.5
)

var tokenRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"did": {}, "do": {}, "does": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "its": {}, "me": {}, "of": {},
	"on": {}, "or": {}, "tell": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {},
	"with": {}, "about": {}, "can": {}, "you": {},
}

// Embedder is a deterministic, dependency-free text encoder.
type Embedder struct {
	dimensions int
}

// NewEmbedder creates a hashing embedder with the given dimension count.
func NewEmbedder(dimensions int) (*Embedder, error) {
	if dimensions < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %d", embeddings.ErrEncoding, dimensions)
	}
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}, nil
}

// Embed converts text into a unit-length vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", embeddings.ErrEncoding, err)
	}

	text = embeddings.Normalize(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", embeddings.ErrEncoding, embeddings.ErrEmptyText)
	}

	return e.vectorize(text), nil
}

// EmbedBatch embeds every text, failing on the first empty one.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	normalized, err := embeddings.NormalizeAll(texts)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(normalized))
	for i, t := range normalized {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", embeddings.ErrEncoding, err)
		}
		out[i] = e.vectorize(t)
	}
	return out, nil
}

// Dimensions returns the fixed vector length.
func (e *Embedder) Dimensions(context.Context) (int, error) {
	return e.dimensions, nil
}

// Model returns the model identifier.
func (e *Embedder) Model() string {
	return fmt.Sprintf("%s/%d", ModelName, e.dimensions)
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

// Tokens returns the lowercased content words of text.
func Tokens(text string) []string {
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		t = strings.ReplaceAll(t, "’", "'")
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, stem(t))
	}
	return out
}

func (e *Embedder) vectorize(text string) []float32 {
	vec := make([]float32, e.dimensions)
	tokens := Tokens(text)

	for i, tok := range tokens {
		e.add(vec, tok, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, bigramWeight)
		}
	}

	if len(tokens) == 0 {
		// Only stopwords or punctuation: hash the whole text so the vector is
		// still non-zero.
		e.add(vec, strings.ToLower(text), 1)
	}
	return embeddings.L2Normalize(vec)
}

func (e *Embedder) add(vec []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(e.dimensions))
	if h&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// stem strips a few common English suffixes so "painted" and "painting"
// share a feature with "paint".
func stem(t string) string {
	for _, suffix := range []string{"'s", "ing", "ed", "s"} {
		if strings.HasSuffix(t, suffix) && len(t)-len(suffix) >= 3 {
			base := strings.TrimSuffix(t, suffix)
			if suffix == "s" && strings.HasSuffix(base, "s") {
				return t
			}
			return base
		}
	}
	return t
}

var _ embeddings.Embedder = (*Embedder)(nil)
