// Package retriever is the public façade over the CBIR retrieval engine.
//
// It wraps internal/retriever.Retriever behind a functional-options
// constructor so callers outside this module never need to reach into
// internal packages to index and search images.
package retriever

import (
	"errors"
	"fmt"

	"github.com/Sadra3st/CBIR/internal/config"
	"github.com/Sadra3st/CBIR/internal/embed"
	intretriever "github.com/Sadra3st/CBIR/internal/retriever"
)

// ErrNilConfig is returned when constructing a Retriever without a config.
var ErrNilConfig = errors.New("config is required")

// ErrNilEmbedder is returned when constructing a Retriever without an
// embedder and no provider-based embedder could be built from the config.
var ErrNilEmbedder = errors.New("embedder is required")

// Method selects a search strategy. See the Method* constants.
type Method = intretriever.Method

const (
	MethodBruteForce       = intretriever.MethodBruteForce
	MethodLSH              = intretriever.MethodLSH
	MethodNSW              = intretriever.MethodNSW
	MethodAnnoy            = intretriever.MethodAnnoy
	MethodHNSWExperimental = intretriever.MethodHNSWExperimental
)

// DefaultCategory is assigned to images added without an explicit category.
const DefaultCategory = intretriever.DefaultCategory

// SearchQuery, SearchResult and ImportItem are re-exported unchanged: the
// façade adds no fields of its own over the internal orchestrator's shapes.
type (
	SearchQuery  = intretriever.SearchQuery
	SearchResult = intretriever.SearchResult
	ImportItem   = intretriever.ImportItem
)

// Retriever is the public handle onto a running CBIR instance.
type Retriever struct {
	inner *intretriever.Retriever
}

// Option configures a Retriever before construction.
type Option func(*options)

type options struct {
	cfg      *config.Config
	embedder embed.Embedder
}

// WithConfig sets the store/index/embedder configuration.
//
// This is a required option; New returns ErrNilConfig without it.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithEmbedder overrides the embedder the config's Provider would otherwise
// select, useful for tests and for callers embedding a custom feature
// extractor.
func WithEmbedder(e embed.Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// New builds a Retriever from the given options.
//
//	r, err := retriever.New(
//	    retriever.WithConfig(cfg),
//	)
//
// If no embedder is supplied via WithEmbedder, one is built from
// cfg.Embedder via embed.New. Returns ErrNilConfig if no config is
// provided.
func New(opts ...Option) (*Retriever, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.cfg == nil {
		return nil, ErrNilConfig
	}

	embedder := o.embedder
	if embedder == nil {
		built, err := embed.New(o.cfg.Embedder, o.cfg.Vector.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("build embedder: %w", err)
		}
		embedder = built
	}
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	inner, err := intretriever.New(o.cfg, embedder)
	if err != nil {
		return nil, fmt.Errorf("build retriever: %w", err)
	}

	return &Retriever{inner: inner}, nil
}

// AddImage embeds and indexes a single image file, returning its new ID.
func (r *Retriever) AddImage(path, category string) (string, error) {
	return r.inner.AddImage(path, category)
}

// ImportBatch indexes multiple pre-embedded images in one rebuild pass.
func (r *Retriever) ImportBatch(items []ImportItem) ([]string, error) {
	return r.inner.ImportBatch(items)
}

// Search runs a similarity query against the requested method.
func (r *Retriever) Search(query SearchQuery) ([]SearchResult, error) {
	return r.inner.Search(query)
}

// DeleteImage removes an item by ID, reporting whether it existed.
func (r *Retriever) DeleteImage(id string) (bool, error) {
	return r.inner.DeleteImage(id)
}

// UpdateImageMetadata patches an item's category in place.
func (r *Retriever) UpdateImageMetadata(id string, newCategory *string) error {
	return r.inner.UpdateImageMetadata(id, newCategory)
}

// GetImageDetails returns an item's stored vector and metadata.
func (r *Retriever) GetImageDetails(id string) ([]float32, map[string]any, bool) {
	vec, meta, ok := r.inner.GetImageDetails(id)
	if !ok {
		return nil, nil, false
	}
	return vec, map[string]any{
		"path":     meta.Path,
		"category": meta.Category,
		"filename": meta.Filename,
	}, true
}

// GetAllEmbeddingsForViz snapshots every stored vector and category, for
// callers building a 2D/3D embedding visualization.
func (r *Retriever) GetAllEmbeddingsForViz() (ids []string, vectors [][]float32, categories []string) {
	rawIDs, rawVectors, rawCategories := r.inner.GetAllEmbeddingsForViz()
	vectors = make([][]float32, len(rawVectors))
	for i, v := range rawVectors {
		vectors[i] = v
	}
	return rawIDs, vectors, rawCategories
}

// Reset wipes the store and every index.
func (r *Retriever) Reset() error {
	return r.inner.Reset()
}

// Benchmark times every approximate method against brute-force ground
// truth and returns a formatted text report. Fails if indexes are still
// building.
func (r *Retriever) Benchmark(numQueries, k int) (string, error) {
	return r.inner.Benchmark(numQueries, k)
}

// Status reports the current background-startup/rebuild phase.
func (r *Retriever) Status() string {
	return r.inner.Status()
}

// Stats returns the item count, dimensionality and category breakdown
// alongside the current background-rebuild status string.
func (r *Retriever) Stats() (count, dimensions int, categories map[string]int, status string) {
	stats, s := r.inner.Stats()
	return stats.Count, stats.Dimensions, stats.Categories, s
}

// Ready reports whether NSW and Annoy are safe to query.
func (r *Retriever) Ready() bool {
	return r.inner.Ready()
}
