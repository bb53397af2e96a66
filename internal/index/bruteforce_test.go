package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

func sampleVectors() map[store.ItemID]vectormath.Vector {
	return map[store.ItemID]vectormath.Vector{
		"a": {0, 0},
		"b": {1, 0},
		"c": {5, 5},
		"d": {10, 10},
	}
}

func TestBruteForce_QueryReturnsExactClosest(t *testing.T) {
	bf, err := NewBruteForce(vectormath.MetricEuclidean)
	require.NoError(t, err)
	require.NoError(t, bf.Build(sampleVectors()))

	results, err := bf.Query(vectormath.Vector{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, store.ItemID("a"), results[0].ID)
	assert.Equal(t, store.ItemID("b"), results[1].ID)
}

func TestBruteForce_QueryKLargerThanDataset(t *testing.T) {
	bf, err := NewBruteForce(vectormath.MetricEuclidean)
	require.NoError(t, err)
	require.NoError(t, bf.Build(sampleVectors()))

	results, err := bf.Query(vectormath.Vector{0, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestBruteForce_UnknownMetricRejected(t *testing.T) {
	_, err := NewBruteForce(vectormath.Metric("bogus"))
	assert.Error(t, err)
}

func TestBruteForce_ClearEmptiesIndex(t *testing.T) {
	bf, err := NewBruteForce(vectormath.MetricEuclidean)
	require.NoError(t, err)
	require.NoError(t, bf.Build(sampleVectors()))

	bf.Clear()

	results, err := bf.Query(vectormath.Vector{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func benchmarkCorpus(n, dim int) map[store.ItemID]vectormath.Vector {
	vectors := make(map[store.ItemID]vectormath.Vector, n)
	for i := 0; i < n; i++ {
		v := make(vectormath.Vector, dim)
		for d := range v {
			v[d] = float32((i*d + d) % 101)
		}
		vectors[store.ItemID(fmt.Sprintf("item-%d", i))] = v
	}
	return vectors
}

// BenchmarkBruteForce_Query1k profiles the scan that every other engine's
// recall is measured against in internal/bench's benchmark report.
func BenchmarkBruteForce_Query1k(b *testing.B) {
	bf, err := NewBruteForce(vectormath.MetricEuclidean)
	require.NoError(b, err)
	require.NoError(b, bf.Build(benchmarkCorpus(1000, 128)))
	q := vectormath.Vector(make([]float32, 128))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := bf.Query(q, 10); err != nil {
			b.Fatal(err)
		}
	}
}
