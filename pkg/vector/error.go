package vector

import "errors"

var (
	// ErrIndexLoad is returned when a persisted index cannot be used. Callers
	// recover by rebuilding from the catalog.
	ErrIndexLoad = errors.New("index load failed")

	// ErrNotFound is returned, with ErrIndexLoad, when no persisted index exists.
	ErrNotFound = errors.New("index not found")

	// ErrDimensionMismatch is returned when vector lengths disagree with the
	// index or the configured encoder.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCountMismatch is returned when the identifier map and vector count
	// disagree, or when a vector file is shorter or longer than its header says.
	ErrCountMismatch = errors.New("identifier count does not match vector count")

	// ErrStale is returned when a persisted index was built from a different
	// catalog or encoder model.
	ErrStale = errors.New("index is stale")
)
