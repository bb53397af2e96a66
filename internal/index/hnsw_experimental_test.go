package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

func TestHNSWExperimental_BuildAndQuery(t *testing.T) {
	dir := t.TempDir()
	e := NewHNSWExperimental(2, filepath.Join(dir, "hnsw.gob"))
	require.NoError(t, e.Build(sampleVectors()))

	results, err := e.Query(vectormath.Vector{0, 0.01}, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestHNSWExperimental_AddAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	e := NewHNSWExperimental(2, filepath.Join(dir, "hnsw.gob"))
	require.NoError(t, e.Build(sampleVectors()))

	require.NoError(t, e.Add("a", vectormath.Vector{9, -9}))

	results, err := e.Query(vectormath.Vector{9, -9}, 1)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, store.ItemID("a"), results[0].ID)
}

func TestHNSWExperimental_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	e := NewHNSWExperimental(2, filepath.Join(dir, "hnsw.gob"))
	require.NoError(t, e.Build(sampleVectors()))

	_, err := e.Query(vectormath.Vector{0, 0, 0}, 1)
	assert.Error(t, err)
}

func TestHNSWExperimental_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hnsw.gob")

	e := NewHNSWExperimental(2, path)
	require.NoError(t, e.Build(sampleVectors()))
	require.NoError(t, e.Save())

	e2 := NewHNSWExperimental(2, path)
	require.NoError(t, e2.Load())

	results, err := e2.Query(vectormath.Vector{0, 0.01}, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestHNSWExperimental_QueryEmptyGraph(t *testing.T) {
	dir := t.TempDir()
	e := NewHNSWExperimental(2, filepath.Join(dir, "hnsw.gob"))

	results, err := e.Query(vectormath.Vector{0, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
