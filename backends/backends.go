// Package backends builds embedding caches from configuration.
package backends

import (
	"context"
	"errors"
	"fmt"

	"github.com/botirk38/semanticmap/backends/inmemory"
	"github.com/botirk38/semanticmap/backends/remote"
	"github.com/botirk38/semanticmap/types"
)

var ErrUnsupportedBackend = errors.New("unsupported backend type")

// BackendFactory creates vector backends based on type and configuration
type BackendFactory struct{}

// NewBackend creates a new vector backend of the specified type
func (f *BackendFactory) NewBackend(ctx context.Context, backendType types.BackendType, config types.BackendConfig) (types.VectorBackend, error) {
	switch backendType {
	case types.BackendLRU:
		return NewLRUBackend(config)
	case types.BackendRedis:
		return NewRedisBackend(ctx, config)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backendType)
	}
}

// NewLRUBackend creates a new LRU backend
func NewLRUBackend(config types.BackendConfig) (types.VectorBackend, error) {
	return inmemory.NewLRUBackend(config)
}

// NewRedisBackend creates a new Redis backend
func NewRedisBackend(ctx context.Context, config types.BackendConfig) (types.VectorBackend, error) {
	return remote.NewRedisBackend(ctx, config)
}
