package types

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// EmbeddingSet is an ordered collection of equal-length vectors, one per input text.
type EmbeddingSet struct {
	Vectors [][]float64
	// Labels holds optional identity labels, parallel to Vectors.
	Labels []string
}

// NewEmbeddingSet coerces provider output into an EmbeddingSet.
func NewEmbeddingSet(vectors [][]float32, labels []string) EmbeddingSet {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		row := make([]float64, len(v))
		for j, f := range v {
			row[j] = float64(f)
		}
		out[i] = row
	}
	return EmbeddingSet{Vectors: out, Labels: labels}
}

// Len returns the number of vectors in the set.
func (s EmbeddingSet) Len() int {
	return len(s.Vectors)
}

// Dim returns the dimensionality of the first vector, or 0 for an empty set.
func (s EmbeddingSet) Dim() int {
	if len(s.Vectors) == 0 {
		return 0
	}
	return len(s.Vectors[0])
}

// Validate checks that the set is non-empty, rectangular and finite.
func (s EmbeddingSet) Validate() error {
	if len(s.Vectors) == 0 {
		return fmt.Errorf("%w: embedding set is empty", ErrInvalidInput)
	}
	dim := len(s.Vectors[0])
	if dim == 0 {
		return fmt.Errorf("%w: embedding dimensionality is zero", ErrInvalidInput)
	}
	for i, v := range s.Vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: row %d has %d values, expected %d", ErrInvalidInput, i, len(v), dim)
		}
		for j, f := range v {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: non-finite value at row %d, column %d", ErrInvalidInput, i, j)
			}
		}
	}
	if s.Labels != nil && len(s.Labels) != len(s.Vectors) {
		return fmt.Errorf("%w: %d labels for %d vectors", ErrLabelLength, len(s.Labels), len(s.Vectors))
	}
	return nil
}

// LabelsOrPositions returns the set's labels, or "1".."n" when none were given.
func (s EmbeddingSet) LabelsOrPositions() []string {
	if s.Labels != nil {
		return s.Labels
	}
	return Positions(len(s.Vectors))
}

// Positions returns the 1-based labels "1".."n".
func Positions(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return labels
}

// IsMissing reports whether v is the missing-value marker (NaN).
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// WarningKind classifies a non-fatal degeneracy.
type WarningKind string

const (
	// WarnZeroNorm marks a profile whose L2 norm is zero; sparsity is reported as 0.
	WarnZeroNorm WarningKind = "zero_norm"
	// WarnZeroComplexity marks a profile with Σx⁴ = 0; complexity is missing.
	WarnZeroComplexity WarningKind = "zero_complexity"
	// WarnShortProfile marks a profile too short for sparsity or dispersion.
	WarnShortProfile WarningKind = "short_profile"
	// WarnEmptyGroup marks a group cell with no contributing similarities.
	WarnEmptyGroup WarningKind = "empty_group"
	// WarnBoundaryValue marks a similarity of ±1 (or beyond) met during Fisher-z averaging.
	WarnBoundaryValue WarningKind = "boundary_value"
)

// Warning is a DegenerateValueWarning: it never aborts a computation.
type Warning struct {
	Kind    WarningKind
	Row     int // -1 when not applicable
	Col     int // -1 when not applicable
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (row %d, col %d): %s", w.Kind, w.Row, w.Col, w.Message)
}

// EmbeddingProvider defines the interface all embedding providers must satisfy.
type EmbeddingProvider interface {
	// EmbedTexts turns texts into embedding vectors, one per text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Name identifies the provider and model, e.g. "openai:text-embedding-3-small".
	Name() string
	// Close frees any resources held by the provider.
	Close()
}

// ProviderType represents the type of embedding provider
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
)

// ProviderConfig selects and configures one embedding provider explicitly.
type ProviderConfig struct {
	Type      ProviderType
	APIKey    string
	BaseURL   string
	OrgID     string
	Model     string
	BatchSize int
	// MaxTokens caps the token count of each input text; 0 uses the provider default.
	MaxTokens int
}

// VectorBackend stores embedding vectors by key.
type VectorBackend interface {
	// Get retrieves a vector by key
	Get(ctx context.Context, key string) ([]float32, bool, error)

	// Set stores a vector under key
	Set(ctx context.Context, key string, vector []float32) error

	// Delete removes a vector by key
	Delete(ctx context.Context, key string) error

	// Len returns the number of stored vectors
	Len(ctx context.Context) (int, error)

	// Flush clears all stored vectors
	Flush(ctx context.Context) error

	// Close closes the backend and releases resources
	Close() error
}

// BackendConfig provides configuration options for backends
type BackendConfig struct {
	// For in-memory caches
	Capacity int
	TTL      time.Duration

	// For Redis
	ConnectionString string
	Username         string
	Password         string
	Database         int
	Prefix           string
}

// BackendType represents the type of cache backend
type BackendType string

const (
	BackendLRU   BackendType = "lru"
	BackendRedis BackendType = "redis"
)
