package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

func clusteredVectors() map[store.ItemID]vectormath.Vector {
	vecs := map[store.ItemID]vectormath.Vector{}
	for i := 0; i < 20; i++ {
		vecs[store.ItemID(string(rune('a'+i)))] = vectormath.Vector{
			float32(i) * 0.01, float32(i) * 0.01, 0, 0,
		}
	}
	for i := 0; i < 20; i++ {
		vecs[store.ItemID("far"+string(rune('a'+i)))] = vectormath.Vector{
			100 + float32(i)*0.01, 100 + float32(i)*0.01, 0, 0,
		}
	}
	return vecs
}

func TestLSH_BuildAndQueryFindsNearbyCluster(t *testing.T) {
	dir := t.TempDir()
	l := NewLSH(4, 6, 4, filepath.Join(dir, "lsh"))

	vecs := clusteredVectors()
	require.NoError(t, l.Build(vecs))

	results, err := l.Query(vectormath.Vector{0, 0, 0, 0}, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	for _, r := range results {
		assert.Less(t, r.Distance, 50.0)
	}
}

func TestLSH_AddIncrementally(t *testing.T) {
	dir := t.TempDir()
	l := NewLSH(4, 6, 4, filepath.Join(dir, "lsh"))

	require.NoError(t, l.Build(clusteredVectors()))
	require.NoError(t, l.Add("new-near", vectormath.Vector{0.001, 0.001, 0, 0}))

	results, err := l.Query(vectormath.Vector{0, 0, 0, 0}, 50)
	require.NoError(t, err)

	found := false
	for _, r := range results {
		if r.ID == "new-near" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLSH_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "lsh")
	l := NewLSH(4, 6, 4, prefix)
	require.NoError(t, l.Build(clusteredVectors()))

	l2 := NewLSH(4, 6, 4, prefix)
	require.NoError(t, l2.Load())

	// l2's vector map is not restored by Load (only the live store rebuilds
	// it via Build/Add), so compare the hash functions alone: a non-zero
	// probe must land in the same bucket under the loaded planes.
	qHash := l.hashFuncs[0].hash(vectormath.Vector{1, -2, 3, -4})
	loadedHash := l2.hashFuncs[0].hash(vectormath.Vector{1, -2, 3, -4})
	assert.Equal(t, qHash, loadedHash)
}

func TestLSH_LoadMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	l := NewLSH(4, 6, 4, filepath.Join(dir, "nonexistent"))
	assert.NoError(t, l.Load())
}

func TestLSH_ClearEmptiesTables(t *testing.T) {
	dir := t.TempDir()
	l := NewLSH(4, 6, 4, filepath.Join(dir, "lsh"))
	require.NoError(t, l.Build(clusteredVectors()))

	l.Clear()

	results, err := l.Query(vectormath.Vector{0, 0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
