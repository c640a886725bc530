package aggregate

import "math"

// FisherZ maps a correlation-scale value r in (-1, 1) to z = 0.5·ln((1+r)/(1-r)).
// r = ±1 gives ±Inf; |r| > 1 gives NaN.
func FisherZ(r float64) float64 {
	return math.Atanh(r)
}

// InverseFisherZ maps z back to correlation scale, (e^(2z)-1)/(e^(2z)+1).
// Evaluated as tanh so large |z| does not overflow.
func InverseFisherZ(z float64) float64 {
	return math.Tanh(z)
}
