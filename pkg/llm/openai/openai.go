// Package openai implements llm.Generator with chat completions against any
// OpenAI-compatible API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/wikiart/pkg/llm"
)

const (
	providerName = "openai"

	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"

	// APIKeyEnv is read when Config.APIKey is empty.
	APIKeyEnv = "OPENAI_API_KEY"
)

// Config holds configuration for the OpenAI client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
}

// Client sends the assembled prompt as a single user message.
type Client struct {
	client      *openai.Client
	model       string
	temperature *float64
}

// New creates an OpenAI-compatible generation client.
func New(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("OpenAI API key is required: set %s", APIKeyEnv)
	}

	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Name returns "openai".
func (c *Client) Name() string { return providerName }

// Generate performs a single chat completion.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	temperature := req.Temperature
	if temperature == nil {
		temperature = c.temperature
	}
	if temperature != nil {
		chatReq.Temperature = float32(*temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, convertError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, llm.MalformedError(providerName, "no completion choices returned", nil)
	}

	choice := resp.Choices[0]
	return &llm.GenerateResponse{
		Model:      resp.Model,
		CreatedAt:  time.Unix(resp.Created, 0).UTC(),
		Text:       choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Health lists models, which is free and checks the key.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return convertError(err)
	}
	return nil
}

func convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return llm.StatusError(providerName, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.StatusError(providerName, reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	return llm.TransportError(providerName, err)
}

var _ llm.Generator = (*Client)(nil)
