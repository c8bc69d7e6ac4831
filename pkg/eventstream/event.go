// Package eventstream publishes completed chat exchanges to an external
// stream for downstream consumers.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeExchangeCompleted is emitted after a chat exchange completes.
	EventTypeExchangeCompleted = "wikiart.exchange.completed"
)

// ExchangeEvent is a transport-neutral event payload for one completed
// exchange.
type ExchangeEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Exchange      ExchangeBody `json:"exchange"`
}

// EventSource identifies where the exchange was answered.
type EventSource struct {
	Service  string `json:"service"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// ExchangeBody carries the exchange itself.
type ExchangeBody struct {
	SessionID   string       `json:"session_id"`
	QuestionSeq int          `json:"question_seq"`
	Question    string       `json:"question"`
	Answer      string       `json:"answer"`
	Sources     []ArtworkRef `json:"sources"`
	Attempts    int          `json:"attempts"`
	DurationMs  int64        `json:"duration_ms"`
	AskedAt     time.Time    `json:"asked_at"`
}

// ArtworkRef is a retrieved artwork cited by the answer.
type ArtworkRef struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Score float32 `json:"score"`
	Rank  int     `json:"rank"`
}

// NewExchangeEvent stamps body with a fresh event id and the current time.
func NewExchangeEvent(source EventSource, body ExchangeBody) *ExchangeEvent {
	return &ExchangeEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeExchangeCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Exchange:      body,
	}
}
