package llm

import (
	"time"
)

// GenerateResponse is a provider-agnostic completion result.
type GenerateResponse struct {
	// Model that generated the response
	Model string `json:"model"`

	// Response timestamp
	CreatedAt time.Time `json:"created_at,omitzero"`

	// Text is the generated reply, untrimmed.
	Text string `json:"text"`

	// Stop reason (e.g., "stop", "length")
	StopReason string `json:"stop_reason,omitempty"`

	// Token usage and timing metrics
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts and timing information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Timing (provider-specific, normalized to nanoseconds where possible)
	TotalDurationNs int64 `json:"total_duration_ns,omitempty"`
}
