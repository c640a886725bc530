package types

import "errors"

// Structural errors. These fail a whole call.
var (
	// ErrInvalidInput indicates an input matrix is empty, ragged or holds non-finite values
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates the two embedding sets differ in dimensionality
	ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")

	// ErrLabelLength indicates a label vector does not match its row or column count
	ErrLabelLength = errors.New("label count does not match")
)

// Embedding collaborator errors.
var (
	// ErrNoProvider indicates an operation needs an embedding provider but none is configured
	ErrNoProvider = errors.New("no embedding provider configured")

	// ErrEmptyAPIKey indicates a provider was configured without credentials
	ErrEmptyAPIKey = errors.New("API key is required")

	// ErrTextTooLong indicates an input text exceeds the model's token limit
	ErrTextTooLong = errors.New("text exceeds model token limit")

	// ErrUnsupportedProvider indicates an unknown provider type
	ErrUnsupportedProvider = errors.New("unsupported provider type")

	// ErrEmptyResponse indicates a provider returned fewer vectors than texts
	ErrEmptyResponse = errors.New("provider returned no embedding")
)
