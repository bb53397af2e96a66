package retriever_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadra3st/CBIR/internal/config"
	"github.com/Sadra3st/CBIR/pkg/retriever"
)

func newTestConfig(t *testing.T, dim int) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Store.DataDir = t.TempDir()
	cfg.Vector.Dimensions = dim
	cfg.LSH.NumBits = 4
	cfg.LSH.NumTables = 2
	cfg.NSW.M = 4
	cfg.NSW.EfConstruction = 20
	cfg.Annoy.NumTrees = 3
	cfg.Annoy.MaxLeafSize = 2
	return cfg
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := retriever.New()
	assert.ErrorIs(t, err, retriever.ErrNilConfig)
}

func TestNew_BuildsDefaultStaticEmbedderFromConfig(t *testing.T) {
	cfg := newTestConfig(t, 16)
	r, err := retriever.New(retriever.WithConfig(cfg))
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestRetriever_AddImageAndSearchRoundTrip(t *testing.T) {
	cfg := newTestConfig(t, 16)
	r, err := retriever.New(retriever.WithConfig(cfg))
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "img.jpg")
	require.NoError(t, os.WriteFile(path, []byte("public facade round trip test content"), 0o644))

	id, err := r.AddImage(path, "demo")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	results, err := r.Search(retriever.SearchQuery{Path: path, K: 1, Method: retriever.MethodBruteForce})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)

	_, meta, ok := r.GetImageDetails(id)
	require.True(t, ok)
	assert.Equal(t, "demo", meta["category"])

	ids, vectors, categories := r.GetAllEmbeddingsForViz()
	require.Len(t, ids, 1)
	assert.Len(t, vectors[0], 16)
	assert.Equal(t, []string{"demo"}, categories)

	deleted, err := r.DeleteImage(id)
	require.NoError(t, err)
	assert.True(t, deleted)
}
