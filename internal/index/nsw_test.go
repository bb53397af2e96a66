package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

func TestNSW_BuildAndQueryFindsClosest(t *testing.T) {
	n := NewNSW(8, 50, 50)
	require.NoError(t, n.Build(sampleVectors()))

	results, err := n.Query(vectormath.Vector{0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, store.ItemID("a"), results[0].ID)
}

func TestNSW_AddIncrementally(t *testing.T) {
	n := NewNSW(8, 50, 50)
	require.NoError(t, n.Build(sampleVectors()))
	require.NoError(t, n.Add("e", vectormath.Vector{0.1, 0.1}))

	results, err := n.Query(vectormath.Vector{0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, store.ItemID("a"), results[0].ID)
}

func TestNSW_QueryEmptyGraph(t *testing.T) {
	n := NewNSW(8, 50, 50)
	results, err := n.Query(vectormath.Vector{0, 0}, 1)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestNSW_ClearResetsGraph(t *testing.T) {
	n := NewNSW(8, 50, 50)
	require.NoError(t, n.Build(sampleVectors()))

	n.Clear()

	results, err := n.Query(vectormath.Vector{0, 0}, 1)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestNSW_LargerGraphRecall(t *testing.T) {
	vecs := map[store.ItemID]vectormath.Vector{}
	for i := 0; i < 100; i++ {
		vecs[store.ItemID(fmt.Sprintf("item-%d", i))] = vectormath.Vector{
			float32(i), float32(i) * 2,
		}
	}

	n := NewNSW(16, 100, 50)
	require.NoError(t, n.Build(vecs))

	results, err := n.Query(vectormath.Vector{0, 0}, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}
