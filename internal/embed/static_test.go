package embed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestStaticImageEmbedder_Deterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.jpg", []byte("some pretend image bytes, repeated repeated repeated"))

	e := NewStaticImageEmbedder(64)
	v1, err := e.Embed(path)
	require.NoError(t, err)
	v2, err := e.Embed(path)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 64)
}

func TestStaticImageEmbedder_DifferentContentDifferentVector(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTempFile(t, dir, "a.jpg", []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	pathB := writeTempFile(t, dir, "b.jpg", []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))

	e := NewStaticImageEmbedder(64)
	va, err := e.Embed(pathA)
	require.NoError(t, err)
	vb, err := e.Embed(pathB)
	require.NoError(t, err)

	assert.NotEqual(t, va, vb)
}

func TestStaticImageEmbedder_L2Normalized(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "a.jpg", []byte("some nonzero content for normalization"))

	e := NewStaticImageEmbedder(32)
	v, err := e.Embed(path)
	require.NoError(t, err)

	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-4)
}

func TestStaticImageEmbedder_MissingFile(t *testing.T) {
	e := NewStaticImageEmbedder(32)
	_, err := e.Embed(filepath.Join(t.TempDir(), "does-not-exist.jpg"))
	assert.Error(t, err)
}

func TestStaticImageEmbedder_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "empty.jpg", []byte{})

	e := NewStaticImageEmbedder(32)
	_, err := e.Embed(path)
	assert.Error(t, err)
}

func TestStaticImageEmbedder_Dimensions(t *testing.T) {
	e := NewStaticImageEmbedder(512)
	assert.Equal(t, 512, e.Dimensions())
}
