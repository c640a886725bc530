// Package inmemory holds process-local embedding caches.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/botirk38/semanticmap/types"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCapacity is used when BackendConfig.Capacity is not positive.
const DefaultCapacity = 4096

// store is the subset shared by lru.Cache and expirable.LRU.
type store interface {
	Add(key string, value []float32) bool
	Get(key string) ([]float32, bool)
	Remove(key string) bool
	Len() int
	Purge()
}

// LRUBackend implements VectorBackend using LRU eviction policy.
// With a TTL, entries also expire after that duration.
type LRUBackend struct {
	mu    sync.Mutex
	cache store
}

// NewLRUBackend creates a new LRU backend
func NewLRUBackend(config types.BackendConfig) (*LRUBackend, error) {
	capacity := config.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if config.TTL > 0 {
		return &LRUBackend{cache: expirable.NewLRU[string, []float32](capacity, nil, config.TTL)}, nil
	}

	c, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUBackend{cache: c}, nil
}

// Set stores a copy of vector under key
func (b *LRUBackend) Set(ctx context.Context, key string, vector []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.Add(key, slices.Clone(vector))
	return nil
}

// Get retrieves a vector from the LRU cache
func (b *LRUBackend) Get(ctx context.Context, key string) ([]float32, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if vec, ok := b.cache.Get(key); ok {
		return slices.Clone(vec), true, nil
	}
	return nil, false, nil
}

// Delete removes a vector from the LRU cache
func (b *LRUBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.Remove(key)
	return nil
}

// Flush clears all entries from the LRU cache
func (b *LRUBackend) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.Purge()
	return nil
}

// Len returns the number of entries in the LRU cache
func (b *LRUBackend) Len(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.cache.Len(), nil
}

// Close closes the LRU backend (no-op for in-memory)
func (b *LRUBackend) Close() error {
	return nil
}
