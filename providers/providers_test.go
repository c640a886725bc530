package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/botirk38/semanticmap/backends/inmemory"
	"github.com/botirk38/semanticmap/types"
)

// MockProvider embeds a text as [len(text), 1] and records every request.
type MockProvider struct {
	calls [][]string
	err   error
}

func (m *MockProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls = append(m.calls, append([]string(nil), texts...))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (m *MockProvider) Name() string { return "mock:test" }
func (m *MockProvider) Close()       {}

func newCache(t *testing.T) types.VectorBackend {
	t.Helper()
	backend, err := inmemory.NewLRUBackend(types.BackendConfig{Capacity: 100})
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	return backend
}

func TestCachingProvider_DeduplicatesMisses(t *testing.T) {
	mock := &MockProvider{}
	cached := NewCachingProvider(mock, newCache(t))
	ctx := context.Background()

	vectors, err := cached.EmbedTexts(ctx, []string{"a", "bb", "a", "ccc"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if len(mock.calls) != 1 || len(mock.calls[0]) != 3 {
		t.Fatalf("Expected one upstream call with 3 texts, got %v", mock.calls)
	}
	wantLens := []float32{1, 2, 1, 3}
	for i, want := range wantLens {
		if vectors[i][0] != want {
			t.Errorf("Expected vector %d to start with %v, got %v", i, want, vectors[i])
		}
	}

	// Second call is served from the cache except for the new text
	vectors, err = cached.EmbedTexts(ctx, []string{"ccc", "dddd", "a"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if len(mock.calls) != 2 {
		t.Fatalf("Expected 2 upstream calls, got %d", len(mock.calls))
	}
	if got := mock.calls[1]; len(got) != 1 || got[0] != "dddd" {
		t.Errorf("Expected only dddd upstream, got %v", got)
	}
	if vectors[1][0] != 4 {
		t.Errorf("Expected dddd vector, got %v", vectors[1])
	}

	// Fully cached call never reaches upstream
	if _, err := cached.EmbedTexts(ctx, []string{"a", "bb"}); err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if len(mock.calls) != 2 {
		t.Errorf("Expected no further upstream calls, got %d", len(mock.calls))
	}
}

func TestCachingProvider_UpstreamError(t *testing.T) {
	boom := errors.New("boom")
	backend := newCache(t)
	cached := NewCachingProvider(&MockProvider{err: boom}, backend)

	_, err := cached.EmbedTexts(context.Background(), []string{"x"})
	if !errors.Is(err, boom) {
		t.Errorf("Expected upstream error, got %v", err)
	}
	if n, _ := backend.Len(context.Background()); n != 0 {
		t.Errorf("Expected nothing cached after failure, got %d", n)
	}
}

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("openai:m", "hello")
	k2 := CacheKey("gemini:m", "hello")
	if k1 == k2 {
		t.Error("Expected keys to differ by provider")
	}
	if k1 != CacheKey("openai:m", "hello") {
		t.Error("Expected stable key")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		config  types.ProviderConfig
		wantErr error
		prefix  string
	}{
		{name: "openai without key", config: types.ProviderConfig{Type: types.ProviderOpenAI}, wantErr: types.ErrEmptyAPIKey},
		{name: "gemini without key", config: types.ProviderConfig{Type: types.ProviderGemini}, wantErr: types.ErrEmptyAPIKey},
		{name: "unknown", config: types.ProviderConfig{Type: "cohere"}, wantErr: types.ErrUnsupportedProvider},
		{name: "openai", config: types.ProviderConfig{Type: types.ProviderOpenAI, APIKey: "k"}, prefix: "openai:"},
		{name: "ollama", config: types.ProviderConfig{Type: types.ProviderOllama}, prefix: "ollama:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(ctx, tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer p.Close()
			if len(p.Name()) < len(tt.prefix) || p.Name()[:len(tt.prefix)] != tt.prefix {
				t.Errorf("Expected name prefix %s, got %s", tt.prefix, p.Name())
			}
		})
	}
}
