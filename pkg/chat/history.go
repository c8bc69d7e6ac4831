package chat

import (
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/wikiart/pkg/llm"
)

// History is an ordered window over the most recent turns of one session.
// Appending past the bound evicts the oldest turns.
type History struct {
	mu      sync.RWMutex
	max     int
	turns   []llm.Turn
	nextSeq int
}

// NewHistory keeps at most bound turns. A bound of zero keeps none.
func NewHistory(bound int) *History {
	return &History{max: max(bound, 0), nextSeq: 1}
}

// Append records turns in order, numbering them and evicting the oldest
// turns past the bound.
func (h *History) Append(turns ...llm.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, t := range turns {
		t.Seq = h.nextSeq
		h.nextSeq++
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		h.turns = append(h.turns, t)
	}

	if over := len(h.turns) - h.max; over > 0 {
		h.turns = slices.Delete(h.turns, 0, over)
	}
}

// Turns returns a copy of the retained turns, oldest first.
func (h *History) Turns() []llm.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.turns)
}

// Len is the number of retained turns.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Max is the bound.
func (h *History) Max() int { return h.max }
