// Package ollama implements llm.Generator against Ollama's /api/generate.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/utils"
)

const (
	providerName = "ollama"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// MaxResponseBytes caps how much of a reply body is read.
	MaxResponseBytes = 8 << 20
)

// Client calls a local Ollama server.
type Client struct {
	baseURL     string
	model       string
	temperature *float64
	httpClient  *http.Client
}

// Config holds configuration for the Ollama client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Model is used when a request leaves Model empty.
	Model string

	// Temperature is used when a request leaves Temperature nil.
	Temperature *float64

	// HTTPClient defaults to a client without its own timeout; deadlines
	// come from the request context.
	HTTPClient *http.Client
}

// New creates an Ollama generation client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:     baseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  hc,
	}
}

// Name returns "ollama".
func (c *Client) Name() string { return providerName }

// Generate performs a single non-streaming generation request.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	temperature := req.Temperature
	if temperature == nil {
		temperature = c.temperature
	}

	body := generateRequest{Model: model, Prompt: req.Prompt, Stream: false}
	if temperature != nil {
		body.Options = &requestOptions{Temperature: temperature}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.MalformedError(providerName, "encoding request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, llm.MalformedError(providerName, "creating request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", utils.UserAgent())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.TransportError(providerName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, llm.TransportError(providerName, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		return nil, llm.StatusError(providerName, resp.StatusCode, e.Error)
	}
	if len(raw) > MaxResponseBytes {
		return nil, llm.MalformedError(providerName, fmt.Sprintf("response exceeds %d bytes", MaxResponseBytes), nil)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, llm.MalformedError(providerName, "decoding response", err)
	}
	if out.Response == nil {
		return nil, llm.MalformedError(providerName, "response field missing", nil)
	}

	return &llm.GenerateResponse{
		Model:      out.Model,
		CreatedAt:  out.CreatedAt,
		Text:       *out.Response,
		StopReason: out.DoneReason,
		Usage: &llm.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
			TotalDurationNs:  out.TotalDuration,
		},
	}, nil
}

// Health verifies the server answers /api/tags and, when a model is
// configured, that it has been pulled.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return llm.MalformedError(providerName, "creating health check request", err)
	}
	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.TransportError(providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llm.StatusError(providerName, resp.StatusCode, "health check failed")
	}

	if c.model == "" {
		return nil
	}

	var tags tagsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseBytes)).Decode(&tags); err != nil {
		return llm.MalformedError(providerName, "decoding model list", err)
	}
	for _, m := range tags.Models {
		if m.Name == c.model || m.Name == c.model+":latest" {
			return nil
		}
	}
	return llm.MalformedError(providerName, fmt.Sprintf("model %q is not pulled (run: ollama pull %s)", c.model, c.model), nil)
}

var _ llm.Generator = (*Client)(nil)
