// Package llm defines the text generation contract shared by the chat
// orchestrator and its providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrGeneration matches every ProviderError. The orchestrator surfaces it
// once retries are exhausted.
var ErrGeneration = errors.New("generation service failed")

// Generator produces a completion for a prompt.
type Generator interface {
	// Generate runs one attempt. It does not retry; callers own the retry
	// policy and the per-attempt deadline carried by ctx.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Health checks that the service is reachable.
	Health(ctx context.Context) error

	// Name is the provider name, e.g. "ollama".
	Name() string
}

// ProviderError describes one failed generation attempt.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error

	// Retryable is true for timeouts, transport failures, 5xx and 429.
	Retryable bool
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	parts := []string{"provider=" + e.Provider}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is makes every ProviderError match ErrGeneration.
func (e *ProviderError) Is(target error) bool {
	return target == ErrGeneration
}

// TransportError wraps a failure to reach the service.
func TransportError(provider string, err error) *ProviderError {
	msg := "request failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	}
	return &ProviderError{Provider: provider, Message: msg, Cause: err, Retryable: !errors.Is(err, context.Canceled)}
}

// StatusError describes a non-200 reply.
func StatusError(provider string, code int, detail string) *ProviderError {
	msg := http.StatusText(code)
	if detail != "" {
		msg = detail
	}
	return &ProviderError{
		Provider:   provider,
		StatusCode: code,
		Message:    msg,
		Retryable:  code >= 500 || code == http.StatusTooManyRequests,
	}
}

// MalformedError describes a 200 reply that could not be used.
func MalformedError(provider, msg string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Message: msg, Cause: cause}
}

// IsRetryable reports whether another attempt could succeed.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}
