// Package openai implements embeddings.Embedder against any OpenAI-compatible
// embeddings endpoint.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/wikiart/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is used when no model is configured.
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)

	// APIKeyEnv is read when Config.APIKey is empty.
	APIKeyEnv = "OPENAI_API_KEY"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// Embedder calls the /embeddings endpoint of an OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int

	probeOnce sync.Once
	probeDims int
	probeErr  error
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg Config) (*Embedder, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: no API key: set %s", embeddings.ErrEncoding, APIKeyEnv)
	}

	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(model),
		dimensions: cfg.Dimensions,
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

// EmbedBatch embeds texts in one request. Results are ordered by the index
// the API reports, not by response position.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	normalized, err := embeddings.NormalizeAll(texts)
	if err != nil {
		return nil, err
	}

	req := openai.EmbeddingRequest{
		Input:          normalized,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, parseAPIError(err)
	}

	if len(resp.Data) != len(normalized) {
		return nil, fmt.Errorf("%w: API returned %d embeddings for %d inputs",
			embeddings.ErrEncoding, len(resp.Data), len(normalized))
	}

	out := make([][]float32, len(normalized))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("%w: unexpected embedding index %d", embeddings.ErrEncoding, d.Index)
		}
		if e.dimensions > 0 && len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("%w: model %s returned %d dimensions, configured %d",
				embeddings.ErrEncoding, e.model, len(d.Embedding), e.dimensions)
		}
		out[d.Index] = embeddings.L2Normalize(d.Embedding)
	}
	return out, nil
}

// Dimensions returns the configured dimensions, probing the API when unset.
func (e *Embedder) Dimensions(ctx context.Context) (int, error) {
	if e.dimensions > 0 {
		return e.dimensions, nil
	}
	e.probeOnce.Do(func() {
		v, err := e.Embed(ctx, "dimension probe")
		e.probeDims, e.probeErr = len(v), err
	})
	return e.probeDims, e.probeErr
}

// Model returns the configured model name.
func (e *Embedder) Model() string {
	return "openai/" + string(e.model)
}

// Close is a no-op; the underlying client holds no resources.
func (e *Embedder) Close() error {
	return nil
}

// parseAPIError extracts a readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%w: embedding API error %d: %s", embeddings.ErrEncoding, reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: embedding API error %d: %s", embeddings.ErrEncoding, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("%w: embedding request failed: %w", embeddings.ErrEncoding, err)
}

func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		return parsed.Detail
	}
	return ""
}

var _ embeddings.Embedder = (*Embedder)(nil)
