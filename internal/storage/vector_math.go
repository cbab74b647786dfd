// ABOUTME: Vector math for the brute-force index: inner product and L2 normalisation
// ABOUTME: Scores are inner products of unit vectors, i.e. cosine similarity
package storage

import "math"

// Dot returns the inner product of a and b accumulated in float64
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Normalize returns a unit-length copy of v. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	norm := math.Sqrt(Dot(v, v))
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
