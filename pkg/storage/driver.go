// Package storage persists completed chat exchanges as an append-only
// transcript. It is written to off the request path by the worker pool and
// never feeds back into a session's history.
package storage

import (
	"context"
	"time"
)

// Source is one artwork that grounded an answer.
type Source struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// Entry is one stored question and answer.
type Entry struct {
	SessionID string

	// Seq is the sequence number of the question turn within its session.
	Seq int

	Question string
	Answer   string

	// Model is empty for replies that did not come from the model.
	Model      string
	Sources    []Source
	Attempts   int
	DurationMs int64
	CreatedAt  time.Time
}

// Driver defines the interface for persisting and listing transcript entries.
type Driver interface {
	// Append stores an entry. Storing the same (SessionID, Seq) twice
	// returns ErrConflict.
	Append(ctx context.Context, entry *Entry) error

	// List returns a session's entries ordered by Seq. An unknown session
	// yields an empty slice.
	List(ctx context.Context, sessionID string) ([]*Entry, error)

	// Close closes the store and releases any resources.
	Close() error
}
