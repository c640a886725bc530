package backends

import (
	"context"
	"errors"
	"testing"

	"github.com/botirk38/semanticmap/types"
)

func TestBackendFactory(t *testing.T) {
	factory := &BackendFactory{}
	ctx := context.Background()

	backend, err := factory.NewBackend(ctx, types.BackendLRU, types.BackendConfig{Capacity: 4})
	if err != nil {
		t.Fatalf("Failed to create LRU backend: %v", err)
	}
	defer func() { _ = backend.Close() }()

	if err := backend.Set(ctx, "x", []float32{1, 2}); err != nil {
		t.Fatalf("Failed to set vector: %v", err)
	}
	if n, _ := backend.Len(ctx); n != 1 {
		t.Errorf("Expected 1 entry, got %d", n)
	}

	_, err = factory.NewBackend(ctx, types.BackendType("fifo"), types.BackendConfig{})
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("Expected ErrUnsupportedBackend, got %v", err)
	}
}
