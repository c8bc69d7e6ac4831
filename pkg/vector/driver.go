// Package vector provides the flat similarity index over artwork embeddings
// and the stores that persist it.
package vector

import (
	"context"
	"fmt"
	"time"
)

// MetricInnerProduct scores by dot product over unit-length vectors, which
// equals cosine similarity.
const MetricInnerProduct = "ip"

// Meta describes how an index was built. It is persisted alongside the
// vectors and compared against the running configuration on load.
type Meta struct {
	// Model identifies the encoder that produced every vector.
	Model string `json:"model"`

	// Metric is the similarity measure. Only MetricInnerProduct is supported.
	Metric string `json:"metric"`

	// Dimensions is the length of every vector.
	Dimensions int `json:"dimensions"`

	// CatalogDigest is the SHA-256 of the catalog file the index was built from.
	CatalogDigest string `json:"catalog_digest"`

	// BuiltAt is when the build finished.
	BuiltAt time.Time `json:"built_at"`
}

// Store persists and restores a whole index. Indexes are replaced wholesale
// on Save and never patched.
type Store interface {
	// Save replaces any persisted index with idx.
	Save(ctx context.Context, idx *Index) error

	// Load restores the persisted index. A missing index fails with
	// ErrIndexLoad and ErrNotFound; a corrupt one with ErrIndexLoad.
	Load(ctx context.Context) (*Index, error)

	// Close releases any resources held by the store.
	Close() error
}

// Expectation is what the running process requires of a loaded index.
type Expectation struct {
	Model         string
	Dimensions    int
	CatalogDigest string
}

// Validate rejects an index that cannot serve the current encoder or catalog.
// Empty expectation fields are not checked.
func Validate(idx *Index, want Expectation) error {
	meta := idx.Meta()

	if want.Dimensions > 0 && meta.Dimensions != want.Dimensions {
		return fmt.Errorf("%w: %w: index has %d dimensions, encoder produces %d",
			ErrIndexLoad, ErrDimensionMismatch, meta.Dimensions, want.Dimensions)
	}

	if want.Model != "" && meta.Model != want.Model {
		return fmt.Errorf("%w: %w: built with model %q, configured %q",
			ErrIndexLoad, ErrStale, meta.Model, want.Model)
	}

	if want.CatalogDigest != "" && meta.CatalogDigest != want.CatalogDigest {
		return fmt.Errorf("%w: %w: catalog changed since build", ErrIndexLoad, ErrStale)
	}

	return nil
}
