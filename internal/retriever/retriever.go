// Package retriever wires the embedder, vector store and all five search
// engines into the single orchestrator a caller drives.
//
// Go has no built-in reentrant mutex, so the original's "Retriever lock,
// reentrant because save is called while it is held" is realized as three
// *distinct* non-reentrant locks taken in the documented order
// (Retriever -> Store -> per-index) rather than one lock entered twice:
// mu guards orchestration (a sync.RWMutex so concurrent Search calls don't
// serialize against each other, only against mutation/rebuild), and
// VectorStore and each index own their own lock or, where unsynchronized,
// are only ever touched while mu is held. Because the calls that trigger a
// persistence write (store.Save, lsh.Save) acquire only the store's or
// index's own lock -- never mu again -- this produces the same observable
// serialization Python's threading.RLock gives, without needing
// reentrancy.
//
// Status()/Ready() deliberately read from fields guarded by their own small
// mutex instead of mu: the background startup rebuild can hold mu for a
// long time (an O(N log N) graph build), and a caller polling indexing
// status as UI feedback shouldn't block on that rebuild to see it.
package retriever

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Sadra3st/CBIR/internal/bench"
	"github.com/Sadra3st/CBIR/internal/config"
	"github.com/Sadra3st/CBIR/internal/embed"
	"github.com/Sadra3st/CBIR/internal/errors"
	"github.com/Sadra3st/CBIR/internal/index"
	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

const (
	statusInitializing  = "Initializing..."
	statusLoadingLSH    = "Loading LSH..."
	statusIndexing      = "Indexing..."
	statusBuildingGraph = "Building Graphs..."
	statusReady         = "Ready"
)

// Retriever is the CBIR orchestrator: embedder, store, and the five search
// engines, behind the add/search/delete/import operations a caller drives.
type Retriever struct {
	cfg      *config.Config
	logger   *slog.Logger
	embedder embed.Embedder

	store            *store.VectorStore
	bruteForce       *index.BruteForce
	lsh              *index.LSH
	nsw              *index.NSW
	annoy            *index.Annoy
	hnswExperimental *index.HNSWExperimental

	mu sync.RWMutex

	statusMu sync.RWMutex
	status   string
	ready    bool
}

// New constructs a Retriever bound to cfg, loads whatever snapshot exists
// on disk, and spawns the background startup rebuild in a goroutine before
// returning -- callers may start issuing AddImage/Search immediately;
// approximate methods silently fall back to brute force until Ready()
// reports true.
func New(cfg *config.Config, embedder embed.Embedder) (*Retriever, error) {
	logger := slog.Default()

	vectorStore := store.NewVectorStore(store.VectorStoreConfig{
		VectorsPath:  cfg.VectorsPath(),
		MetadataPath: cfg.MetadataPath(),
		Dimensions:   cfg.Vector.Dimensions,
	})
	if err := vectorStore.Load(); err != nil {
		logger.Warn("failed to load vector store snapshot, starting empty", "error", err)
	}

	bf, err := index.NewBruteForce(vectormath.Metric(cfg.Vector.Metric))
	if err != nil {
		return nil, fmt.Errorf("construct brute force engine: %w", err)
	}

	lsh := index.NewLSH(cfg.Vector.Dimensions, cfg.LSH.NumBits, cfg.LSH.NumTables, cfg.LSHPrefixPath())
	if err := lsh.Load(); err != nil {
		logger.Warn("failed to load LSH snapshot, starting empty", "error", err)
	}

	hnswExp := index.NewHNSWExperimental(cfg.Vector.Dimensions, filepath.Join(cfg.Store.DataDir, "hnsw_experimental"))
	if err := hnswExp.Load(); err != nil {
		logger.Warn("failed to load hnsw-experimental snapshot, starting empty", "error", err)
	}

	r := &Retriever{
		cfg:              cfg,
		logger:           logger,
		embedder:         embedder,
		store:            vectorStore,
		bruteForce:       bf,
		lsh:              lsh,
		nsw:              index.NewNSW(cfg.NSW.M, cfg.NSW.EfConstruction, cfg.NSW.Ef),
		annoy:            index.NewAnnoy(cfg.Annoy.NumTrees, cfg.Annoy.MaxLeafSize),
		hnswExperimental: hnswExp,
	}
	r.setStatus(statusInitializing)

	vectors := r.store.GetAllVectors()
	_ = r.bruteForce.Build(vectors)

	go r.backgroundStartup()

	return r, nil
}

// backgroundStartup runs once at construction: if the store is non-empty
// but LSH has no buckets on disk, it does a full rebuild of all indexes;
// otherwise it only rebuilds NSW/Annoy in memory from the loaded store,
// reusing the LSH tables that were already read from disk.
func (r *Retriever) backgroundStartup() {
	r.setStatus(statusLoadingLSH)

	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := r.store.GetAllVectors()
	if len(vectors) > 0 {
		if !r.lsh.HasBuckets() {
			r.setStatus(statusIndexing)
			if err := r.lsh.Build(vectors); err != nil {
				r.logger.Error("LSH rebuild failed", "error", err)
			}
		} else {
			r.lsh.SetVectors(vectors)
		}

		r.setStatus(statusBuildingGraph)
		if err := r.nsw.Build(vectors); err != nil {
			r.logger.Error("NSW rebuild failed", "error", err)
		}
		if err := r.annoy.Build(vectors); err != nil {
			r.logger.Error("Annoy rebuild failed", "error", err)
		}
		if err := r.hnswExperimental.Build(vectors); err != nil {
			r.logger.Error("hnsw-experimental rebuild failed", "error", err)
		}
	}

	r.setStatus(statusReady)
	r.setReady(true)
	r.logger.Info("background indexing complete")
}

func (r *Retriever) setStatus(s string) {
	r.statusMu.Lock()
	r.status = s
	r.statusMu.Unlock()
}

func (r *Retriever) setReady(v bool) {
	r.statusMu.Lock()
	r.ready = v
	r.statusMu.Unlock()
}

// Status returns the current human-readable indexing status.
func (r *Retriever) Status() string {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

// Ready reports whether the background startup rebuild has completed.
func (r *Retriever) Ready() bool {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.ready
}

// AddImage embeds the file at path, inserts it into the store and persists,
// adds it to LSH (persisting LSH) and NSW. Annoy is not updated here --
// only a full rebuild (ImportBatch/DeleteImage/Reset) touches it, matching
// the original ImageRetriever.add_image. A missing file or embedder
// failure is logged and returned as an error rather than panicking; a
// thumbnail failure is swallowed and the item is still inserted.
func (r *Retriever) AddImage(path, category string) (store.ItemID, error) {
	if category == "" {
		category = DefaultCategory
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		missingErr := errors.InputMissingError("image file not found", readErr).WithDetail("path", path)
		r.logger.Warn("add_image: input file missing", "error", errors.FormatForLog(missingErr))
		return "", missingErr
	}

	vec, err := r.embedder.Embed(path)
	if err != nil {
		embedErr := errors.EmbedFailureError("failed to embed image", err).WithDetail("path", path)
		r.logger.Warn("add_image: embedding failed", "error", errors.FormatForLog(embedErr))
		return "", embedErr
	}

	var thumbnail []byte
	if thumb, thumbErr := generateThumbnail(data); thumbErr != nil {
		r.logger.Warn("add_image: thumbnail generation failed, continuing without one", "path", path, "error", thumbErr)
	} else {
		thumbnail = thumb
	}

	id := store.NewItemID()
	meta := store.Metadata{
		Path:      path,
		Category:  category,
		Filename:  filepath.Base(path),
		Thumbnail: thumbnail,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Insert(id, vec, meta); err != nil {
		return "", err
	}
	if err := r.store.Save(); err != nil {
		r.logger.Error("add_image: failed to persist store", "error", err)
		return "", err
	}

	_ = r.bruteForce.Build(r.store.GetAllVectors())

	if err := r.lsh.Add(id, vec); err != nil {
		r.logger.Error("add_image: failed to add to LSH", "error", err)
	}
	if err := r.lsh.Save(); err != nil {
		r.logger.Error("add_image: failed to persist LSH", "error", err)
	}

	if err := r.nsw.Add(id, vec); err != nil {
		r.logger.Error("add_image: failed to add to NSW", "error", err)
	}

	if err := r.hnswExperimental.Add(id, vec); err != nil {
		r.logger.Error("add_image: failed to add to hnsw-experimental", "error", err)
	}
	if err := r.hnswExperimental.Save(); err != nil {
		r.logger.Error("add_image: failed to persist hnsw-experimental", "error", err)
	}

	return id, nil
}

// ImportBatch synchronously inserts every item, persists the store once,
// then runs a full rebuild of all three approximate indexes. It holds the
// orchestration lock for the whole operation, so Search blocks until the
// rebuild finishes rather than racing a stale index.
func (r *Retriever) ImportBatch(items []ImportItem) ([]store.ItemID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]store.ItemID, 0, len(items))
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = DefaultCategory
		}

		id := store.NewItemID()
		meta := store.Metadata{
			Path:      item.Path,
			Category:  category,
			Filename:  filepath.Base(item.Path),
			Thumbnail: item.Thumbnail,
		}
		if err := r.store.Insert(id, item.Vector, meta); err != nil {
			return nil, fmt.Errorf("import item %q: %w", item.Path, err)
		}
		ids = append(ids, id)
	}

	if err := r.store.Save(); err != nil {
		return nil, err
	}

	vectors := r.store.GetAllVectors()
	_ = r.bruteForce.Build(vectors)

	r.setStatus(statusIndexing)
	if err := r.lsh.Build(vectors); err != nil {
		r.logger.Error("import_batch: LSH rebuild failed", "error", err)
	}
	r.setStatus(statusBuildingGraph)
	if err := r.nsw.Build(vectors); err != nil {
		r.logger.Error("import_batch: NSW rebuild failed", "error", err)
	}
	if err := r.annoy.Build(vectors); err != nil {
		r.logger.Error("import_batch: Annoy rebuild failed", "error", err)
	}
	if err := r.hnswExperimental.Build(vectors); err != nil {
		r.logger.Error("import_batch: hnsw-experimental rebuild failed", "error", err)
	}
	r.setStatus(statusReady)
	r.setReady(true)

	return ids, nil
}

// Search embeds query.Path (if query.Vector is nil), dispatches to the
// requested method, and enriches each hit with its stored metadata.
// Unready NSW/Annoy silently falls back to brute force with a logged
// warning, since brute force needs no precomputed structure.
func (r *Retriever) Search(query SearchQuery) ([]SearchResult, error) {
	vec := query.Vector
	if vec == nil {
		if query.Path == "" {
			return nil, errors.ValidationError("search requires a path or a vector", nil)
		}
		embedded, err := r.embedder.Embed(query.Path)
		if err != nil {
			return nil, errors.EmbedFailureError("failed to embed query image", err)
		}
		vec = embedded
	}

	method := query.Method
	switch method {
	case MethodLSH, MethodNSW, MethodAnnoy, MethodBruteForce, MethodHNSWExperimental:
	default:
		method = MethodBruteForce
	}

	if (method == MethodNSW || method == MethodAnnoy || method == MethodHNSWExperimental) && !r.Ready() {
		r.logger.Warn("search: approximate index not ready, falling back to brute force", "requested_method", method)
		method = MethodBruteForce
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	engine := r.engineFor(method)
	neighbors, err := engine.Query(vec, query.K)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", method, err)
	}

	results := make([]SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		meta, _ := r.store.GetMetadata(n.ID)
		results = append(results, SearchResult{
			ID:        n.ID,
			Score:     n.Distance,
			Path:      meta.Path,
			Category:  meta.Category,
			Filename:  meta.Filename,
			Thumbnail: meta.Thumbnail,
		})
	}
	return results, nil
}

func (r *Retriever) engineFor(method Method) index.Engine {
	switch method {
	case MethodLSH:
		return r.lsh
	case MethodNSW:
		return r.nsw
	case MethodAnnoy:
		return r.annoy
	case MethodHNSWExperimental:
		return r.hnswExperimental
	default:
		return r.bruteForce
	}
}

// DeleteImage removes id from the store, persists, and triggers a full
// rebuild of all three approximate indexes: LSH buckets and graph edges may
// still reference id, and revalidation alone would let memory grow
// unbounded, so a rebuild is preferred.
func (r *Retriever) DeleteImage(id store.ItemID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existed := r.store.Delete(id)
	if !existed {
		return false, nil
	}
	if err := r.store.Save(); err != nil {
		return true, err
	}

	vectors := r.store.GetAllVectors()
	_ = r.bruteForce.Build(vectors)

	r.setStatus(statusIndexing)
	if err := r.lsh.Build(vectors); err != nil {
		r.logger.Error("delete_image: LSH rebuild failed", "error", err)
	}
	r.setStatus(statusBuildingGraph)
	if err := r.nsw.Build(vectors); err != nil {
		r.logger.Error("delete_image: NSW rebuild failed", "error", err)
	}
	if err := r.annoy.Build(vectors); err != nil {
		r.logger.Error("delete_image: Annoy rebuild failed", "error", err)
	}
	if err := r.hnswExperimental.Build(vectors); err != nil {
		r.logger.Error("delete_image: hnsw-experimental rebuild failed", "error", err)
	}
	r.setStatus(statusReady)

	return true, nil
}

// UpdateImageMetadata updates id's category in place. A nil newCategory is
// a no-op read-modify-write that only refreshes UpdatedAt.
func (r *Retriever) UpdateImageMetadata(id store.ItemID, newCategory *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Update(id, nil, newCategory, nil); err != nil {
		return err
	}
	return r.store.Save()
}

// GetImageDetails returns id's stored vector and metadata.
func (r *Retriever) GetImageDetails(id store.ItemID) (vectormath.Vector, store.Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vec, ok := r.store.GetVector(id)
	if !ok {
		return nil, store.Metadata{}, false
	}
	meta, _ := r.store.GetMetadata(id)
	return vec, meta, true
}

// GetAllEmbeddingsForViz returns every stored id alongside its vector and
// category, for a caller that wants to render a 2D/3D projection the way
// the original gui/app.py's visualization tab did.
func (r *Retriever) GetAllEmbeddingsForViz() (ids []store.ItemID, vectors []vectormath.Vector, categories []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.store.GetAllVectors()
	ids = make([]store.ItemID, 0, len(all))
	vectors = make([]vectormath.Vector, 0, len(all))
	categories = make([]string, 0, len(all))

	for id, vec := range all {
		meta, _ := r.store.GetMetadata(id)
		ids = append(ids, id)
		vectors = append(vectors, vec)
		categories = append(categories, meta.Category)
	}
	return ids, vectors, categories
}

// Stats returns item counts and the category breakdown for CLI/status
// reporting, plus the current background-rebuild status string.
func (r *Retriever) Stats() (store.Stats, string) {
	r.mu.RLock()
	stats := r.store.Stats()
	r.mu.RUnlock()
	return stats, r.Status()
}

// Reset clears the store, LSH (including on disk), NSW and Annoy.
func (r *Retriever) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Clear(); err != nil {
		return err
	}
	r.bruteForce.Clear()
	r.lsh.Clear()
	r.nsw.Clear()
	r.annoy.Clear()
	r.hnswExperimental.Clear()
	r.setStatus(statusReady)
	r.setReady(true)
	return nil
}

// Benchmark runs the brute-force-vs-approximate recall/latency comparison.
// It requires the background rebuild to have completed, matching the
// original's "benchmark_algorithms requires ready-flag" behavior.
func (r *Retriever) Benchmark(numQueries, k int) (string, error) {
	if !r.Ready() {
		return "", errors.New(errors.ErrCodeIndexNotReady, "indexes are still building, please wait", nil)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	vectors := r.store.GetAllVectors()
	methods := []bench.Method{
		{Name: "lsh", Engine: r.lsh},
		{Name: "nsw", Engine: r.nsw},
		{Name: "annoy", Engine: r.annoy},
	}
	return bench.Run(vectors, r.bruteForce, methods, numQueries, k)
}
