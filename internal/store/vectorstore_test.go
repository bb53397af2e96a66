package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadra3st/CBIR/internal/vectormath"
)

func newTestStore(t *testing.T) *VectorStore {
	t.Helper()
	dir := t.TempDir()
	return NewVectorStore(VectorStoreConfig{
		VectorsPath:  filepath.Join(dir, "vectors.gob"),
		MetadataPath: filepath.Join(dir, "metadata.json"),
		Dimensions:   3,
	})
}

func TestVectorStore_InsertAndGet(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Insert("a", vectormath.Vector{1, 2, 3}, Metadata{Path: "/a.jpg"}))

	v, ok := s.GetVector("a")
	require.True(t, ok)
	assert.Equal(t, vectormath.Vector{1, 2, 3}, v)

	m, ok := s.GetMetadata("a")
	require.True(t, ok)
	assert.Equal(t, "/a.jpg", m.Path)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestVectorStore_InsertDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	err := s.Insert("a", vectormath.Vector{1, 2}, Metadata{})
	assert.Error(t, err)
}

func TestVectorStore_UpdateMergesMetadataOnly(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert("a", vectormath.Vector{1, 2, 3}, Metadata{Extra: map[string]string{"k1": "v1"}}))

	require.NoError(t, s.Update("a", nil, nil, map[string]string{"k2": "v2"}))

	m, ok := s.GetMetadata("a")
	require.True(t, ok)
	assert.Equal(t, "v1", m.Extra["k1"])
	assert.Equal(t, "v2", m.Extra["k2"])

	v, ok := s.GetVector("a")
	require.True(t, ok)
	assert.Equal(t, vectormath.Vector{1, 2, 3}, v)
}

func TestVectorStore_UpdateReplacesVector(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert("a", vectormath.Vector{1, 2, 3}, Metadata{}))

	require.NoError(t, s.Update("a", vectormath.Vector{4, 5, 6}, nil, nil))

	v, ok := s.GetVector("a")
	require.True(t, ok)
	assert.Equal(t, vectormath.Vector{4, 5, 6}, v)
}

func TestVectorStore_UpdateReplacesCategory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert("a", vectormath.Vector{1, 2, 3}, Metadata{Category: "unknown"}))

	newCategory := "cat"
	require.NoError(t, s.Update("a", nil, &newCategory, nil))

	m, ok := s.GetMetadata("a")
	require.True(t, ok)
	assert.Equal(t, "cat", m.Category)
}

func TestVectorStore_UpdateUnknownIDIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Update("missing", vectormath.Vector{1, 2, 3}, nil, map[string]string{"k": "v"}))
	_, ok := s.GetVector("missing")
	assert.False(t, ok)
}

func TestVectorStore_DeleteReportsWhetherItemExisted(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert("a", vectormath.Vector{1, 2, 3}, Metadata{}))

	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
}

func TestVectorStore_CountAndGetAllVectors(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert("a", vectormath.Vector{1, 2, 3}, Metadata{}))
	require.NoError(t, s.Insert("b", vectormath.Vector{4, 5, 6}, Metadata{}))

	assert.Equal(t, 2, s.Count())

	all := s.GetAllVectors()
	assert.Len(t, all, 2)
	assert.Equal(t, vectormath.Vector{1, 2, 3}, all["a"])
}

func TestVectorStore_SaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := VectorStoreConfig{
		VectorsPath:  filepath.Join(dir, "vectors.gob"),
		MetadataPath: filepath.Join(dir, "metadata.json"),
		Dimensions:   3,
	}
	s := NewVectorStore(cfg)
	require.NoError(t, s.Insert("a", vectormath.Vector{1, 2, 3}, Metadata{Path: "/a.jpg", Tags: []string{"cat"}}))
	require.NoError(t, s.Save())

	s2 := NewVectorStore(cfg)
	require.NoError(t, s2.Load())

	v, ok := s2.GetVector("a")
	require.True(t, ok)
	assert.Equal(t, vectormath.Vector{1, 2, 3}, v)

	m, ok := s2.GetMetadata("a")
	require.True(t, ok)
	assert.Equal(t, []string{"cat"}, m.Tags)
}

func TestVectorStore_LoadMissingFilesIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Load())
	assert.Equal(t, 0, s.Count())
}

func TestVectorStore_ClearWipesAndPersists(t *testing.T) {
	dir := t.TempDir()
	cfg := VectorStoreConfig{
		VectorsPath:  filepath.Join(dir, "vectors.gob"),
		MetadataPath: filepath.Join(dir, "metadata.json"),
		Dimensions:   3,
	}
	s := NewVectorStore(cfg)
	require.NoError(t, s.Insert("a", vectormath.Vector{1, 2, 3}, Metadata{}))
	require.NoError(t, s.Clear())

	assert.Equal(t, 0, s.Count())

	s2 := NewVectorStore(cfg)
	require.NoError(t, s2.Load())
	assert.Equal(t, 0, s2.Count())
}

func TestVectorStore_Dimensions(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, 3, s.Dimensions())
}
