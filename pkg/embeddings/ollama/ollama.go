// Package ollama implements pkg/embeddings' Embedder client for Ollama's embedding APIs
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/utils"
)

const (
	// DefaultEmbeddingModel is the Ollama build of all-MiniLM-L6-v2.
	DefaultEmbeddingModel = "all-minilm"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	probeText = "dimension probe"
)

// Embedder wraps Ollama's embedding API.
type Embedder struct {
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client

	probeMu   sync.Mutex
	probeDims int
}

// EmbedderConfig holds configuration for the Ollama embedder.
type EmbedderConfig struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the embedding model to use (e.g., "all-minilm", "nomic-embed-text").
	// Defaults to DefaultEmbeddingModel if empty.
	Model string

	// Dimensions is the expected vector length. When zero it is discovered
	// by embedding a probe string on first use.
	Dimensions int

	// Timeout bounds each HTTP request. Defaults to 120s.
	Timeout time.Duration
}

// embedRequest is the request body for Ollama's embedding API. Input accepts
// a batch of texts.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the response from Ollama's embedding API.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates a new embedder using Ollama's embedding API.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Embedder{
		baseURL:    baseURL,
		model:      model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts with a single /api/embed call.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	normalized, err := embeddings.NormalizeAll(texts)
	if err != nil {
		return nil, err
	}

	vecs, err := e.post(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if e.dimensions > 0 {
		for i, v := range vecs {
			if len(v) != e.dimensions {
				return nil, fmt.Errorf("%w: model %s returned %d dimensions for input %d, configured %d",
					embeddings.ErrEncoding, e.model, len(v), i, e.dimensions)
			}
		}
	}

	for _, v := range vecs {
		embeddings.L2Normalize(v)
	}
	return vecs, nil
}

func (e *Embedder) post(ctx context.Context, texts []string) ([][]float32, error) {
	jsonBody, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", embeddings.ErrEncoding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", embeddings.ErrEncoding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", embeddings.ErrEncoding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", embeddings.ErrEncoding, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrEncoding, err)
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs",
			embeddings.ErrEncoding, len(embedResp.Embeddings), len(texts))
	}

	return embedResp.Embeddings, nil
}

// Dimensions returns the configured dimensions, or probes the model. A
// successful probe is remembered; a failed one is retried on the next call.
func (e *Embedder) Dimensions(ctx context.Context) (int, error) {
	if e.dimensions > 0 {
		return e.dimensions, nil
	}

	e.probeMu.Lock()
	defer e.probeMu.Unlock()
	if e.probeDims > 0 {
		return e.probeDims, nil
	}

	vecs, err := e.post(ctx, []string{probeText})
	if err != nil {
		return 0, err
	}
	if len(vecs[0]) == 0 {
		return 0, fmt.Errorf("%w: model %s returned an empty embedding", embeddings.ErrEncoding, e.model)
	}
	e.probeDims = len(vecs[0])
	return e.probeDims, nil
}

// Model returns the configured model name.
func (e *Embedder) Model() string {
	return "ollama/" + e.model
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
