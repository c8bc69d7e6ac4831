// Package inmemory provides a map-backed storage.Driver for tests and for
// servers that do not configure a database.
package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/papercomputeco/wikiart/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	mu sync.RWMutex

	// sessions maps a session id to its entries in Seq order
	sessions map[string][]*storage.Entry
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		sessions: make(map[string][]*storage.Entry),
	}
}

// Append stores a copy of entry.
func (d *Driver) Append(_ context.Context, entry *storage.Entry) error {
	if entry == nil {
		return storage.ErrNilEntry
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entries := d.sessions[entry.SessionID]
	i, found := slices.BinarySearchFunc(entries, entry.Seq, func(e *storage.Entry, seq int) int {
		return e.Seq - seq
	})
	if found {
		return fmt.Errorf("%w: session %s seq %d", storage.ErrConflict, entry.SessionID, entry.Seq)
	}

	e := *entry
	e.Sources = slices.Clone(entry.Sources)
	d.sessions[entry.SessionID] = slices.Insert(entries, i, &e)
	return nil
}

// List returns the session's entries ordered by Seq.
func (d *Driver) List(_ context.Context, sessionID string) ([]*storage.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries := d.sessions[sessionID]
	out := make([]*storage.Entry, 0, len(entries))
	for _, e := range entries {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)
