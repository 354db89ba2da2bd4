package matching

import "math"

// Cosine returns dot(a,b) / (|a|*|b|).
//
// Absent or mismatched vectors are "no signal", not a fault: if either
// vector is empty, the lengths differ, or either norm is zero, the result
// is 0. Negative results are not clamped; profile embeddings are
// non-negative-dominant, so the raw value is used as the compatibility
// score.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// BatchCosine applies Cosine pairwise against the target, preserving the
// input order of candidates.
func BatchCosine(target []float64, candidates [][]float64) []float64 {
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = Cosine(target, c)
	}
	return out
}
