package ollama

import "time"

// generateRequest represents Ollama's /api/generate request format.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options *requestOptions `json:"options,omitempty"`
}

type requestOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

// generateResponse represents Ollama's non-streaming /api/generate reply.
// Response is a pointer so a missing field can be told apart from an empty
// completion.
type generateResponse struct {
	Model           string    `json:"model"`
	CreatedAt       time.Time `json:"created_at"`
	Response        *string   `json:"response"`
	Done            bool      `json:"done"`
	DoneReason      string    `json:"done_reason,omitempty"`
	TotalDuration   int64     `json:"total_duration,omitempty"`
	PromptEvalCount int       `json:"prompt_eval_count,omitempty"`
	EvalCount       int       `json:"eval_count,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// tagsResponse represents the response from /api/tags
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}
