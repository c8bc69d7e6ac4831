package llm

// GenerateRequest is a provider-agnostic, single-prompt completion request.
type GenerateRequest struct {
	// Model name (e.g., "llama3.2:latest", "gpt-4o-mini")
	Model string `json:"model"`

	// Prompt is the fully assembled prompt text.
	Prompt string `json:"prompt"`

	// Temperature overrides the provider default when set.
	Temperature *float64 `json:"temperature,omitempty"`
}
