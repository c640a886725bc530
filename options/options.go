// Package options provides functional options for configuring a Mapper.
package options

import (
	"context"
	"errors"
	"time"

	"github.com/botirk38/semanticmap/aggregate"
	"github.com/botirk38/semanticmap/backends"
	"github.com/botirk38/semanticmap/logging"
	"github.com/botirk38/semanticmap/providers/gemini"
	"github.com/botirk38/semanticmap/providers/ollama"
	"github.com/botirk38/semanticmap/providers/openai"
	"github.com/botirk38/semanticmap/similarity"
	"github.com/botirk38/semanticmap/types"
)

// Option represents a configuration option for a Mapper
type Option func(*Config) error

// Config holds the configuration for building a Mapper
type Config struct {
	// Provider is optional; without one only precomputed embeddings can be mapped.
	Provider types.EmbeddingProvider
	// Backend caches provider output. It requires a Provider.
	Backend  types.VectorBackend
	Logger   logging.Logger
	Norm01   bool
	IDColumn string
	Clamp    bool
	Epsilon  float64
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Logger:   logging.Discard,
		IDColumn: similarity.DefaultIDColumn,
	}
}

// Apply applies all the given options to the config
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend != nil && c.Provider == nil {
		return errors.New("a cache backend needs an embedding provider - use WithOpenAIProvider, etc.")
	}
	if c.Logger == nil {
		return errors.New("logger cannot be nil")
	}
	return nil
}

// AggregateOptions translates the config into aggregation options.
func (c *Config) AggregateOptions() []aggregate.Option {
	if c.Clamp {
		return []aggregate.Option{aggregate.WithClamp(c.Epsilon)}
	}
	return nil
}

// WithLRUCache caches embeddings in process memory. ttl 0 keeps entries until evicted.
func WithLRUCache(capacity int, ttl time.Duration) Option {
	return func(cfg *Config) error {
		backend, err := backends.NewLRUBackend(types.BackendConfig{
			Capacity: capacity,
			TTL:      ttl,
		})
		if err != nil {
			return err
		}
		cfg.Backend = backend
		return nil
	}
}

// WithRedisCache caches embeddings in Redis
func WithRedisCache(addr string, db int, ttl time.Duration) Option {
	return func(cfg *Config) error {
		backend, err := backends.NewRedisBackend(context.Background(), types.BackendConfig{
			ConnectionString: addr,
			Database:         db,
			TTL:              ttl,
		})
		if err != nil {
			return err
		}
		cfg.Backend = backend
		return nil
	}
}

// WithCustomBackend allows using a pre-configured backend
func WithCustomBackend(backend types.VectorBackend) Option {
	return func(cfg *Config) error {
		if backend == nil {
			return errors.New("backend cannot be nil")
		}
		cfg.Backend = backend
		return nil
	}
}

// WithOpenAIProvider sets up OpenAI embedding provider
func WithOpenAIProvider(apiKey string, model ...string) Option {
	return func(cfg *Config) error {
		config := openai.OpenAIConfig{
			APIKey: apiKey,
		}
		if len(model) > 0 {
			config.Model = model[0]
		}

		provider, err := openai.NewOpenAIProvider(config)
		if err != nil {
			return err
		}
		cfg.Provider = provider
		return nil
	}
}

// WithGeminiProvider sets up Gemini embedding provider
func WithGeminiProvider(apiKey string, model ...string) Option {
	return func(cfg *Config) error {
		config := gemini.GeminiConfig{
			APIKey: apiKey,
		}
		if len(model) > 0 {
			config.Model = model[0]
		}

		provider, err := gemini.NewGeminiProvider(context.Background(), config)
		if err != nil {
			return err
		}
		cfg.Provider = provider
		return nil
	}
}

// WithOllamaProvider sets up a local Ollama embedding provider. Empty values use the defaults.
func WithOllamaProvider(baseURL, model string) Option {
	return func(cfg *Config) error {
		provider, err := ollama.NewOllamaProvider(ollama.OllamaConfig{
			BaseURL: baseURL,
			Model:   model,
		})
		if err != nil {
			return err
		}
		cfg.Provider = provider
		return nil
	}
}

// WithCustomProvider allows using a pre-configured embedding provider
func WithCustomProvider(provider types.EmbeddingProvider) Option {
	return func(cfg *Config) error {
		if provider == nil {
			return errors.New("provider cannot be nil")
		}
		cfg.Provider = provider
		return nil
	}
}

// WithNorm01 rescales the reported similarity matrix to [0, 1] before profiling.
// Group means stay on the cosine scale.
func WithNorm01() Option {
	return func(cfg *Config) error {
		cfg.Norm01 = true
		return nil
	}
}

// WithIDColumn names the label column of exported tables.
func WithIDColumn(name string) Option {
	return func(cfg *Config) error {
		if name == "" {
			return errors.New("id column cannot be empty")
		}
		cfg.IDColumn = name
		return nil
	}
}

// WithClamp clamps ±1 similarities to ±(1 - eps) instead of excluding them from group means.
func WithClamp(eps float64) Option {
	return func(cfg *Config) error {
		if eps >= 1 {
			return aggregate.ErrInvalidEpsilon
		}
		cfg.Clamp = true
		cfg.Epsilon = eps
		return nil
	}
}

// WithLogger receives one entry per mapping stage
func WithLogger(logger logging.Logger) Option {
	return func(cfg *Config) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.Logger = logger
		return nil
	}
}
