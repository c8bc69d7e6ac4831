package vector

import (
	"cmp"
	"fmt"
	"slices"
)

// Hit is one nearest-neighbor match.
type Hit struct {
	// Position is the record's position in catalog order.
	Position int

	// ID is the artwork identifier stored at Position.
	ID string

	// Score is the inner product with the query. Higher is more similar.
	Score float32
}

// Index is an exact, flat inner-product index. It is built once, then only
// read; concurrent Search calls need no locking.
type Index struct {
	meta    Meta
	ids     []string
	vectors []float32
}

// NewIndex returns an empty index for vectors of meta.Dimensions.
func NewIndex(meta Meta) (*Index, error) {
	if meta.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: index dimensions must be positive, got %d", ErrDimensionMismatch, meta.Dimensions)
	}
	if meta.Metric == "" {
		meta.Metric = MetricInnerProduct
	}
	if meta.Metric != MetricInnerProduct {
		return nil, fmt.Errorf("unsupported similarity metric %q", meta.Metric)
	}
	return &Index{meta: meta}, nil
}

// FromParts assembles an index from persisted identifiers and vectors,
// applying the corruption guard.
func FromParts(meta Meta, ids []string, vectors [][]float32) (*Index, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: %w: %d identifiers, %d vectors",
			ErrIndexLoad, ErrCountMismatch, len(ids), len(vectors))
	}

	idx, err := NewIndex(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexLoad, err)
	}

	idx.ids = make([]string, 0, len(ids))
	idx.vectors = make([]float32, 0, len(ids)*meta.Dimensions)
	for i := range ids {
		if err := idx.Add(ids[i], vectors[i]); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrIndexLoad, i, err)
		}
	}
	return idx, nil
}

// Add appends a vector at the next position.
func (x *Index) Add(id string, vec []float32) error {
	if len(vec) != x.meta.Dimensions {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), x.meta.Dimensions)
	}
	x.ids = append(x.ids, id)
	x.vectors = append(x.vectors, vec...)
	return nil
}

// Search returns the k most similar positions, by descending score with ties
// broken by ascending position. k larger than the index is capped.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != x.meta.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index %d", ErrDimensionMismatch, len(query), x.meta.Dimensions)
	}
	if k <= 0 || len(x.ids) == 0 {
		return nil, nil
	}

	hits := make([]Hit, len(x.ids))
	for pos := range x.ids {
		hits[pos] = Hit{Position: pos, ID: x.ids[pos], Score: dot(query, x.Vector(pos))}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})

	return hits[:min(k, len(hits))], nil
}

// Len is the number of indexed vectors.
func (x *Index) Len() int { return len(x.ids) }

// Dimensions is the vector length.
func (x *Index) Dimensions() int { return x.meta.Dimensions }

// Meta returns the build metadata.
func (x *Index) Meta() Meta { return x.meta }

// IDAt returns the identifier stored at pos.
func (x *Index) IDAt(pos int) (string, bool) {
	if pos < 0 || pos >= len(x.ids) {
		return "", false
	}
	return x.ids[pos], true
}

// IDs returns a copy of the identifiers in position order.
func (x *Index) IDs() []string { return slices.Clone(x.ids) }

// Vector returns the stored vector at pos. The slice aliases index memory and
// must not be modified.
func (x *Index) Vector(pos int) []float32 {
	d := x.meta.Dimensions
	return x.vectors[pos*d : (pos+1)*d : (pos+1)*d]
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
