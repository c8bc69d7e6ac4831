// Package llmutils builds the configured generation provider.
package llmutils

import (
	"fmt"

	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/llm/ollama"
	"github.com/papercomputeco/wikiart/pkg/llm/openai"
)

type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Temperature  *float64
}

func NewGenerator(o *NewGeneratorOpts) (llm.Generator, error) {
	switch o.ProviderType {
	case "ollama", "":
		return ollama.New(ollama.Config{
			BaseURL:     o.TargetURL,
			Model:       o.Model,
			Temperature: o.Temperature,
		}), nil
	case "openai":
		return openai.New(openai.Config{
			BaseURL:     o.TargetURL,
			Model:       o.Model,
			Temperature: o.Temperature,
		})
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", o.ProviderType)
	}
}
