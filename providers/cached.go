package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/botirk38/semanticmap/types"
)

// CachingProvider serves embeddings from a VectorBackend and asks the wrapped
// provider only for texts it has not seen.
type CachingProvider struct {
	upstream types.EmbeddingProvider
	backend  types.VectorBackend
}

// NewCachingProvider wraps upstream with backend.
func NewCachingProvider(upstream types.EmbeddingProvider, backend types.VectorBackend) *CachingProvider {
	return &CachingProvider{upstream: upstream, backend: backend}
}

// CacheKey returns the backend key for text as embedded by provider.
func CacheKey(providerName, text string) string {
	sum := sha256.Sum256([]byte(text))
	return providerName + ":" + hex.EncodeToString(sum[:])
}

// Name returns the wrapped provider's name so cached and uncached vectors share keys.
func (c *CachingProvider) Name() string {
	return c.upstream.Name()
}

// EmbedTexts returns one vector per text. Cache misses are deduplicated and
// embedded in a single upstream call, then written back to the backend.
func (c *CachingProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	name := c.upstream.Name()
	out := make([][]float32, len(texts))

	// distinct missing text -> positions waiting for it
	pending := make(map[string][]int)
	var misses []string

	for i, text := range texts {
		if _, ok := pending[text]; ok {
			pending[text] = append(pending[text], i)
			continue
		}
		vec, found, err := c.backend.Get(ctx, CacheKey(name, text))
		if err != nil {
			return nil, fmt.Errorf("cache get: %w", err)
		}
		if found {
			out[i] = vec
			continue
		}
		pending[text] = []int{i}
		misses = append(misses, text)
	}

	if len(misses) == 0 {
		return out, nil
	}

	vectors, err := c.upstream.EmbedTexts(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(misses) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEmptyResponse, len(vectors), len(misses))
	}

	for k, text := range misses {
		if err := c.backend.Set(ctx, CacheKey(name, text), vectors[k]); err != nil {
			return nil, fmt.Errorf("cache set: %w", err)
		}
		for _, i := range pending[text] {
			out[i] = vectors[k]
		}
	}
	return out, nil
}

// Close closes the wrapped provider. The backend is owned by the caller.
func (c *CachingProvider) Close() {
	c.upstream.Close()
}
