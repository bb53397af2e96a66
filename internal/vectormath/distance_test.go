package vectormath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEuclidean_IdenticalVectors_ReturnsZero(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{1, 2, 3}

	assert.InDelta(t, 0, Euclidean(a, b), 1e-9)
}

func TestEuclidean_KnownDistance(t *testing.T) {
	a := Vector{0, 0}
	b := Vector{3, 4}

	assert.InDelta(t, 5, Euclidean(a, b), 1e-9)
}

func TestCosine_IdenticalDirection_ReturnsZero(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{2, 4, 6}

	assert.InDelta(t, 0, Cosine(a, b), 1e-6)
}

func TestCosine_OppositeDirection_ReturnsTwo(t *testing.T) {
	a := Vector{1, 0}
	b := Vector{-1, 0}

	assert.InDelta(t, 2, Cosine(a, b), 1e-6)
}

func TestCosine_ZeroVector_ReturnsOne(t *testing.T) {
	a := Vector{0, 0, 0}
	b := Vector{1, 2, 3}

	assert.Equal(t, 1.0, Cosine(a, b))
}

func TestManhattan_KnownDistance(t *testing.T) {
	a := Vector{0, 0}
	b := Vector{3, 4}

	assert.InDelta(t, 7, Manhattan(a, b), 1e-9)
}

func TestDot_ParallelVectors_IsNegative(t *testing.T) {
	a := Vector{1, 2}
	b := Vector{1, 2}

	assert.Less(t, Dot(a, b), 0.0)
}

func TestOf_KnownMetric_ReturnsFunction(t *testing.T) {
	fn, ok := Of(MetricEuclidean)

	assert.True(t, ok)
	assert.NotNil(t, fn)
}

func TestOf_UnknownMetric_ReturnsFalse(t *testing.T) {
	_, ok := Of(Metric("unknown"))

	assert.False(t, ok)
}

func benchVector(n int) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = float32(i%97) / 97.0
	}
	return v
}

// BenchmarkEuclidean_768 profiles the distance kernel at 768 dimensions,
// a size typical of real image embeddings, since every query fans out into
// len(vectors) calls to this function.
func BenchmarkEuclidean_768(b *testing.B) {
	a, v := benchVector(768), benchVector(768)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Euclidean(a, v)
	}
}

func BenchmarkCosine_768(b *testing.B) {
	a, v := benchVector(768), benchVector(768)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Cosine(a, v)
	}
}

func BenchmarkManhattan_768(b *testing.B) {
	a, v := benchVector(768), benchVector(768)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Manhattan(a, v)
	}
}

func BenchmarkDot_768(b *testing.B) {
	a, v := benchVector(768), benchVector(768)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Dot(a, v)
	}
}
