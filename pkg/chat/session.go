package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/wikiart/pkg/llm"
)

var (
	// ErrInvalidInput is returned for empty user text. No downstream call is
	// made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionBusy is returned when a session already has a request in
	// flight. Concurrent requests are rejected, never queued.
	ErrSessionBusy = errors.New("session has a request in progress")

	// ErrSessionNotFound is returned by Registry lookups for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one conversation. At most one request runs against it at a
// time.
type Session struct {
	ID        string
	CreatedAt time.Time

	inflight sync.Mutex
	lastUsed atomic.Int64
	history  *History
}

// NewSession creates a session with a fresh uuid and an empty history.
func NewSession(maxHistory int) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		history:   NewHistory(maxHistory),
	}
	s.touch()
	return s
}

// History returns a copy of the session's retained turns.
func (s *Session) History() []llm.Turn {
	return s.history.Turns()
}

// LastUsed is when a request last started or finished on the session.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load()).UTC()
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// acquire claims the session for one request.
func (s *Session) acquire() bool {
	if !s.inflight.TryLock() {
		return false
	}
	s.touch()
	return true
}

func (s *Session) release() {
	s.touch()
	s.inflight.Unlock()
}

// Registry holds the sessions of a long-running server, keyed by id.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	maxHistory int
}

// NewRegistry creates sessions whose histories keep maxHistory turns.
func NewRegistry(maxHistory int) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		maxHistory: maxHistory,
	}
}

// Create starts and registers a new session.
func (r *Registry) Create() *Session {
	s := NewSession(r.maxHistory)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get looks up a session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete ends a session and discards its history.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// List returns every session, oldest first.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune deletes sessions last used before cutoff and returns how many went.
// Sessions with a request in flight are kept.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for id, s := range r.sessions {
		if !s.LastUsed().Before(cutoff) || !s.inflight.TryLock() {
			continue
		}
		delete(r.sessions, id)
		s.inflight.Unlock()
		pruned++
	}
	return pruned
}

// Sweep prunes sessions idle for longer than idle until ctx is done,
// checking every idle/2.
func (r *Registry) Sweep(ctx context.Context, idle time.Duration, onPrune func(n int)) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(max(idle/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Prune(now.Add(-idle)); n > 0 && onPrune != nil {
				onPrune(n)
			}
		}
	}
}
