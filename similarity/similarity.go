// Package similarity computes cosine similarity between embedding vectors and
// assembles labelled item-by-target similarity matrices.
package similarity

import "gonum.org/v1/gonum/floats"

// CosineSimilarity computes the cosine of the angle between a and b.
// Returns 0 for empty, mismatched or zero-norm vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}

	return clamp(floats.Dot(a, b) / (normA * normB))
}

// clamp bounds v to [-1, 1] to absorb rounding error.
func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
