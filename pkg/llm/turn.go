package llm

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one immutable message in a conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`

	// Seq is the turn's sequence number within its session, starting at 1.
	Seq int `json:"seq"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}
