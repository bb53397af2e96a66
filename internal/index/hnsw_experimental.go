package index

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// HNSWExperimental wraps github.com/coder/hnsw behind the Engine interface
// as a fifth, non-default strategy alongside brute-force, LSH, NSW and
// Annoy. It is exposed via "--method hnsw-experimental" and exists so
// amanmcp's actual vector-index dependency stays wired into a real
// component instead of being dropped outright. Adapted from
// internal/store/hnsw.go's HNSWStore: the persistence
// mechanics (atomic temp-file-then-rename, gob-encoded ID mappings) and the
// lazy-deletion workaround for a coder/hnsw graph-shrink bug are kept
// nearly verbatim; the CRUD surface is narrowed to the Engine/Incremental/
// Persistable contracts the rest of internal/index implements.
type HNSWExperimental struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	dim    int

	idMap   map[store.ItemID]uint64
	keyMap  map[uint64]store.ItemID
	nextKey uint64

	snapshotPath string
}

type hnswExperimentalMetadata struct {
	IDMap   map[store.ItemID]uint64
	NextKey uint64
	Dim     int
}

// NewHNSWExperimental creates an HNSW graph over cosine distance with the
// given dimensionality, persisting to snapshotPath on Save/Load.
func NewHNSWExperimental(dim int, snapshotPath string) *HNSWExperimental {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &HNSWExperimental{
		graph:        graph,
		dim:          dim,
		idMap:        make(map[store.ItemID]uint64),
		keyMap:       make(map[uint64]store.ItemID),
		snapshotPath: snapshotPath,
	}
}

// Build discards the graph and reinserts every vector.
func (e *HNSWExperimental) Build(vectors map[store.ItemID]vectormath.Vector) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph = hnsw.NewGraph[uint64]()
	e.graph.Distance = hnsw.CosineDistance
	e.graph.M = 16
	e.graph.EfSearch = 20
	e.graph.Ml = 0.25
	e.idMap = make(map[store.ItemID]uint64)
	e.keyMap = make(map[uint64]store.ItemID)
	e.nextKey = 0

	for id, v := range vectors {
		if err := e.addLocked(id, v); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts a single vector into the live graph.
func (e *HNSWExperimental) Add(id store.ItemID, v vectormath.Vector) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addLocked(id, v)
}

func (e *HNSWExperimental) addLocked(id store.ItemID, v vectormath.Vector) error {
	if len(v) != e.dim {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", e.dim, len(v))
	}

	// If the ID already exists, orphan its old key rather than deleting the
	// node outright: coder/hnsw can corrupt the graph when the last node is
	// removed, so stale nodes are left in place and filtered out of results
	// by the ID mapping instead.
	if existingKey, exists := e.idMap[id]; exists {
		delete(e.keyMap, existingKey)
		delete(e.idMap, id)
	}

	key := e.nextKey
	e.nextKey++

	vec := make([]float32, len(v))
	copy(vec, v)
	normalizeVectorInPlace(vec)

	e.graph.Add(hnsw.MakeNode(key, vec))
	e.idMap[id] = key
	e.keyMap[key] = id
	return nil
}

// Query returns up to k approximate nearest neighbors by cosine distance.
func (e *HNSWExperimental) Query(q vectormath.Vector, k int) ([]Neighbor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(q) != e.dim {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", e.dim, len(q))
	}
	if e.graph.Len() == 0 {
		return nil, nil
	}

	query := make([]float32, len(q))
	copy(query, q)
	normalizeVectorInPlace(query)

	nodes := e.graph.Search(query, k)

	results := make([]Neighbor, 0, len(nodes))
	for _, node := range nodes {
		id, ok := e.keyMap[node.Key]
		if !ok {
			continue
		}
		results = append(results, Neighbor{
			ID:       id,
			Distance: float64(e.graph.Distance(query, node.Value)),
		})
	}
	return results, nil
}

// Clear empties the graph.
func (e *HNSWExperimental) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph = hnsw.NewGraph[uint64]()
	e.graph.Distance = hnsw.CosineDistance
	e.graph.M = 16
	e.graph.EfSearch = 20
	e.graph.Ml = 0.25
	e.idMap = make(map[store.ItemID]uint64)
	e.keyMap = make(map[uint64]store.ItemID)
	e.nextKey = 0
}

// Save persists the graph and ID mappings atomically (temp file + rename).
func (e *HNSWExperimental) Save() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(e.snapshotPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := e.snapshotPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	if err := e.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Rename(tmpPath, e.snapshotPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}

	return e.saveMetadata(e.snapshotPath + ".meta")
}

func (e *HNSWExperimental) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}

	meta := hnswExperimentalMetadata{IDMap: e.idMap, NextKey: e.nextKey, Dim: e.dim}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load reads the graph and ID mappings back from disk.
func (e *HNSWExperimental) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	metaPath := e.snapshotPath + ".meta"
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		return nil
	}

	metaFile, err := os.Open(metaPath)
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer metaFile.Close()

	var meta hnswExperimentalMetadata
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	e.idMap = meta.IDMap
	e.dim = meta.Dim
	e.keyMap = make(map[uint64]store.ItemID, len(e.idMap))
	for id, key := range e.idMap {
		e.keyMap[key] = id
	}
	e.nextKey = meta.NextKey

	file, err := os.Open(e.snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	return e.graph.Import(bufio.NewReader(file))
}

func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

var (
	_ Engine       = (*HNSWExperimental)(nil)
	_ Incremental  = (*HNSWExperimental)(nil)
	_ Persistable  = (*HNSWExperimental)(nil)
)
