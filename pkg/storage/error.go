package storage

import "errors"

var (
	// ErrConflict is returned when an entry with the same session and
	// sequence number is already stored.
	ErrConflict = errors.New("entry already stored")

	// ErrNilEntry is returned by Append for a nil entry.
	ErrNilEntry = errors.New("cannot store nil entry")
)
