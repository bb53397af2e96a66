package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

func TestAnnoy_BuildAndQueryFindsClosest(t *testing.T) {
	a := NewAnnoy(10, 2)
	require.NoError(t, a.Build(sampleVectors()))

	results, err := a.Query(vectormath.Vector{0, 0}, 1)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, store.ItemID("a"), results[0].ID)
}

func TestAnnoy_QueryKLargerThanCandidates(t *testing.T) {
	a := NewAnnoy(5, 2)
	require.NoError(t, a.Build(sampleVectors()))

	results, err := a.Query(vectormath.Vector{0, 0}, 1000)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 4)
}

func TestAnnoy_ClearEmptiesForest(t *testing.T) {
	a := NewAnnoy(5, 2)
	require.NoError(t, a.Build(sampleVectors()))
	a.Clear()

	results, err := a.Query(vectormath.Vector{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAnnoy_LargerDatasetResultsSortedByDistance(t *testing.T) {
	vecs := map[store.ItemID]vectormath.Vector{}
	for i := 0; i < 200; i++ {
		vecs[store.ItemID(fmt.Sprintf("item-%d", i))] = vectormath.Vector{
			float32(i % 17), float32(i % 23), float32(i % 11),
		}
	}

	a := NewAnnoy(15, 10)
	require.NoError(t, a.Build(vecs))

	results, err := a.Query(vectormath.Vector{0, 0, 0}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestDistinctPairIndices_AlwaysDistinct(t *testing.T) {
	for i := 0; i < 1000; i++ {
		a, b := distinctPairIndices(5)
		assert.NotEqual(t, a, b)
		assert.True(t, a >= 0 && a < 5)
		assert.True(t, b >= 0 && b < 5)
	}
}
