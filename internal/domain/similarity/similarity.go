// Package similarity scores semantic embedding vectors.
package similarity

import "math"

// Score returns the cosine similarity of a and b clamped into [0,1].
//
// An empty vector scores 0. Mismatched lengths are truncated to the shorter
// vector before comparing; lossy, but it keeps a catalog usable across an
// embedding-model upgrade.
func Score(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) != len(b) {
		n := min(len(a), len(b))
		a, b = a[:n], b[:n]
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	// Clamp: float drift can push a self-similarity slightly past 1.
	return clamp(dot/(math.Sqrt(na)*math.Sqrt(nb)), 0, 1)
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
