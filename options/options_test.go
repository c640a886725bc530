package options

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/botirk38/semanticmap/aggregate"
	"github.com/botirk38/semanticmap/logging"
	"github.com/botirk38/semanticmap/similarity"
	"github.com/botirk38/semanticmap/types"
)

// Mock provider for testing
type mockProvider struct{}

func (m *mockProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Close() {}

// Mock backend for testing
type mockBackend struct{}

func (m *mockBackend) Get(ctx context.Context, key string) ([]float32, bool, error) {
	return nil, false, nil
}

func (m *mockBackend) Set(ctx context.Context, key string, vector []float32) error {
	return nil
}

func (m *mockBackend) Delete(ctx context.Context, key string) error {
	return nil
}

func (m *mockBackend) Len(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockBackend) Flush(ctx context.Context) error {
	return nil
}

func (m *mockBackend) Close() error {
	return nil
}

func TestConfigCreation(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		cfg := NewConfig()
		if cfg.Logger == nil {
			t.Error("Expected default logger to be set")
		}
		if cfg.IDColumn != similarity.DefaultIDColumn {
			t.Errorf("Expected id column %s, got %s", similarity.DefaultIDColumn, cfg.IDColumn)
		}
		if cfg.Backend != nil {
			t.Error("Expected backend to be nil initially")
		}
		if cfg.Provider != nil {
			t.Error("Expected provider to be nil initially")
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Expected default config to be valid, got: %v", err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		cfg := NewConfig()

		// A cache without a provider is meaningless
		err := cfg.Apply(WithLRUCache(10, 0))
		if err != nil {
			t.Fatalf("Failed to apply cache option: %v", err)
		}

		err = cfg.Validate()
		if err == nil {
			t.Error("Expected validation error for backend without provider")
		}

		err = cfg.Apply(WithCustomProvider(&mockProvider{}))
		if err != nil {
			t.Fatalf("Failed to apply provider option: %v", err)
		}

		err = cfg.Validate()
		if err != nil {
			t.Errorf("Expected validation to pass, got: %v", err)
		}
	})
}

func TestBackendOptions(t *testing.T) {
	t.Run("LRUCache", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithLRUCache(100, time.Minute)); err != nil {
			t.Fatalf("Failed to set LRU cache: %v", err)
		}
		if cfg.Backend == nil {
			t.Error("Expected backend to be set")
		}
	})

	t.Run("CustomBackend", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithCustomBackend(&mockBackend{})); err != nil {
			t.Fatalf("Failed to set custom backend: %v", err)
		}
		if cfg.Backend == nil {
			t.Error("Expected custom backend to be set")
		}
	})

	t.Run("NilBackend", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithCustomBackend(nil)); err == nil {
			t.Error("Expected error for nil backend")
		}
	})
}

func TestProviderOptions(t *testing.T) {
	t.Run("CustomProvider", func(t *testing.T) {
		cfg := NewConfig()
		mockProv := &mockProvider{}

		if err := cfg.Apply(WithCustomProvider(mockProv)); err != nil {
			t.Fatalf("Failed to set custom provider: %v", err)
		}
		if cfg.Provider != mockProv {
			t.Error("Expected custom provider to be set")
		}
	})

	t.Run("NilProvider", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithCustomProvider(nil)); err == nil {
			t.Error("Expected error for nil provider")
		}
	})

	t.Run("OpenAIProvider", func(t *testing.T) {
		cfg := NewConfig()
		err := cfg.Apply(WithOpenAIProvider(""))
		if !errors.Is(err, types.ErrEmptyAPIKey) {
			t.Errorf("Expected ErrEmptyAPIKey, got %v", err)
		}
	})

	t.Run("GeminiProvider", func(t *testing.T) {
		cfg := NewConfig()
		err := cfg.Apply(WithGeminiProvider(""))
		if !errors.Is(err, types.ErrEmptyAPIKey) {
			t.Errorf("Expected ErrEmptyAPIKey, got %v", err)
		}
	})

	t.Run("OllamaProvider", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithOllamaProvider("", "")); err != nil {
			t.Fatalf("Failed to set Ollama provider: %v", err)
		}
		if cfg.Provider == nil || cfg.Provider.Name() != "ollama:nomic-embed-text" {
			t.Errorf("Expected default Ollama provider, got %v", cfg.Provider)
		}
	})
}

func TestAnalysisOptions(t *testing.T) {
	t.Run("Norm01", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithNorm01()); err != nil {
			t.Fatalf("Failed to set norm01: %v", err)
		}
		if !cfg.Norm01 {
			t.Error("Expected Norm01 to be set")
		}
	})

	t.Run("IDColumn", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithIDColumn("item")); err != nil {
			t.Fatalf("Failed to set id column: %v", err)
		}
		if cfg.IDColumn != "item" {
			t.Errorf("Expected item, got %s", cfg.IDColumn)
		}
		if err := cfg.Apply(WithIDColumn("")); err == nil {
			t.Error("Expected error for empty id column")
		}
	})

	t.Run("Clamp", func(t *testing.T) {
		cfg := NewConfig()
		if len(cfg.AggregateOptions()) != 0 {
			t.Error("Expected no aggregate options by default")
		}
		if err := cfg.Apply(WithClamp(1e-4)); err != nil {
			t.Fatalf("Failed to set clamp: %v", err)
		}
		if len(cfg.AggregateOptions()) != 1 {
			t.Error("Expected clamp aggregate option")
		}
		if err := cfg.Apply(WithClamp(2)); !errors.Is(err, aggregate.ErrInvalidEpsilon) {
			t.Errorf("Expected ErrInvalidEpsilon, got %v", err)
		}
	})

	t.Run("Logger", func(t *testing.T) {
		cfg := NewConfig()
		var got []logging.Entry
		if err := cfg.Apply(WithLogger(func(e logging.Entry) { got = append(got, e) })); err != nil {
			t.Fatalf("Failed to set logger: %v", err)
		}
		cfg.Logger(logging.Entry{Stage: logging.StageEmbed})
		if len(got) != 1 {
			t.Errorf("Expected 1 entry, got %d", len(got))
		}
		if err := cfg.Apply(WithLogger(nil)); err == nil {
			t.Error("Expected error for nil logger")
		}
	})
}
