// Package providers builds embedding providers from explicit configuration and
// wraps them with a vector cache.
package providers

import (
	"context"
	"fmt"

	"github.com/botirk38/semanticmap/providers/gemini"
	"github.com/botirk38/semanticmap/providers/ollama"
	"github.com/botirk38/semanticmap/providers/openai"
	"github.com/botirk38/semanticmap/types"
)

// New creates the provider named by config.Type.
func New(ctx context.Context, config types.ProviderConfig) (types.EmbeddingProvider, error) {
	switch config.Type {
	case types.ProviderOpenAI:
		return NewOpenAIProvider(openai.OpenAIConfig{
			APIKey:    config.APIKey,
			BaseURL:   config.BaseURL,
			OrgID:     config.OrgID,
			Model:     config.Model,
			BatchSize: config.BatchSize,
			MaxTokens: config.MaxTokens,
		})
	case types.ProviderGemini:
		return NewGeminiProvider(ctx, gemini.GeminiConfig{
			APIKey:    config.APIKey,
			BaseURL:   config.BaseURL,
			Model:     config.Model,
			BatchSize: config.BatchSize,
			MaxTokens: config.MaxTokens,
		})
	case types.ProviderOllama:
		return NewOllamaProvider(ollama.OllamaConfig{
			BaseURL:   config.BaseURL,
			Model:     config.Model,
			BatchSize: config.BatchSize,
		})
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedProvider, config.Type)
	}
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config openai.OpenAIConfig) (types.EmbeddingProvider, error) {
	return openai.NewOpenAIProvider(config)
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config gemini.GeminiConfig) (types.EmbeddingProvider, error) {
	return gemini.NewGeminiProvider(ctx, config)
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config ollama.OllamaConfig) (types.EmbeddingProvider, error) {
	return ollama.NewOllamaProvider(config)
}
