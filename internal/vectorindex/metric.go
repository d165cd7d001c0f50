package vectorindex

import (
	"math"

	"github.com/custodia-labs/scribe/internal/core/domain"
)

// scoreFunc compares a query vector with an indexed vector.
type scoreFunc func(q, v []float32) float32

func scorer(m domain.Metric) scoreFunc {
	switch m {
	case domain.MetricDot:
		return dot
	case domain.MetricL2:
		return l2
	default:
		return cosine
	}
}

func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}

// cosine returns 0 when either vector has zero norm.
func cosine(a, b []float32) float32 {
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func l2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

// Normalize scales v to unit length in place. Zero vectors are left unchanged.
func Normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
