package ai

import "math"

// NormalizeVector returns a unit-length copy of v. The storage layer ranks
// candidates by dot product, which equals cosine similarity only when every
// stored vector is normalized, so embedder implementations must run their
// output through this before handing vectors out.
func NormalizeVector(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil, ErrZeroVector
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// DotProduct computes the inner product of two equal-length vectors.
// Returns 0 when lengths differ.
func DotProduct(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
