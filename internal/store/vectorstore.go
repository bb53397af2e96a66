package store

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Sadra3st/CBIR/internal/errors"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// VectorStore is the flat-map vector and metadata store every index engine
// reads from and the Retriever writes through. It is the Go counterpart of
// original_source/vector_db/storage.py's VectorDB.
//
// VectorStore owns a single mutex, distinct from the Retriever's and from
// each index's own lock: its methods never call back into the Retriever,
// so a plain sync.RWMutex is sufficient and no reentrant lock is needed.
type VectorStore struct {
	mu sync.RWMutex

	config VectorStoreConfig

	vectors  map[ItemID]vectormath.Vector
	metadata map[ItemID]Metadata
}

// NewVectorStore creates an empty store bound to the given config. Callers
// that want persisted state loaded should call Load afterward.
func NewVectorStore(cfg VectorStoreConfig) *VectorStore {
	return &VectorStore{
		config:   cfg,
		vectors:  make(map[ItemID]vectormath.Vector),
		metadata: make(map[ItemID]Metadata),
	}
}

// Dimensions returns the fixed vector length this store enforces.
func (s *VectorStore) Dimensions() int {
	return s.config.Dimensions
}

// Insert adds or replaces the vector and metadata for id.
func (s *VectorStore) Insert(id ItemID, vector vectormath.Vector, meta Metadata) error {
	if len(vector) != s.config.Dimensions {
		return errors.DimensionMismatchError(s.config.Dimensions, len(vector))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now

	s.vectors[id] = append(vectormath.Vector(nil), vector...)
	s.metadata[id] = meta
	return nil
}

// Update replaces id's vector (if non-nil), id's category (if non-nil) and
// shallow-merges metaPatch into the existing metadata's Extra map, matching
// storage.py's update() semantics: only fields actually supplied are
// overwritten, everything else is preserved.
func (s *VectorStore) Update(id ItemID, vector vectormath.Vector, category *string, metaPatch map[string]string) error {
	if vector != nil && len(vector) != s.config.Dimensions {
		return errors.DimensionMismatchError(s.config.Dimensions, len(vector))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if vector != nil {
		if _, ok := s.vectors[id]; ok {
			s.vectors[id] = append(vectormath.Vector(nil), vector...)
		}
	}

	if existing, ok := s.metadata[id]; ok {
		if category != nil {
			existing.Category = *category
		}
		if len(metaPatch) > 0 {
			if existing.Extra == nil {
				existing.Extra = make(map[string]string, len(metaPatch))
			}
			for k, v := range metaPatch {
				existing.Extra[k] = v
			}
		}
		existing.UpdatedAt = time.Now()
		s.metadata[id] = existing
	}

	return nil
}

// GetVector returns the vector stored for id, or false if it doesn't exist.
func (s *VectorStore) GetVector(id ItemID) (vectormath.Vector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vectors[id]
	if !ok {
		return nil, false
	}
	return append(vectormath.Vector(nil), v...), true
}

// GetMetadata returns a copy of the metadata stored for id, or false if it
// doesn't exist.
func (s *VectorStore) GetMetadata(id ItemID) (Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.metadata[id]
	if !ok {
		return Metadata{}, false
	}
	return m.Clone(), true
}

// GetAllVectors returns a snapshot copy of every stored vector, keyed by ID.
// Mirrors storage.py's get_all_vectors(), which returns vectors.copy().
func (s *VectorStore) GetAllVectors() map[ItemID]vectormath.Vector {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[ItemID]vectormath.Vector, len(s.vectors))
	for id, v := range s.vectors {
		out[id] = append(vectormath.Vector(nil), v...)
	}
	return out
}

// Delete removes id's vector and metadata, reporting whether anything was
// actually removed.
func (s *VectorStore) Delete(id ItemID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hadVector := s.vectors[id]
	_, hadMeta := s.metadata[id]
	delete(s.vectors, id)
	delete(s.metadata, id)
	return hadVector || hadMeta
}

// Count returns the number of stored items.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Stats summarizes the store's contents for CLI/status reporting.
type Stats struct {
	Count      int
	Dimensions int
	Categories map[string]int
}

// Stats returns a snapshot of item counts and the category breakdown,
// grounded on amanmcp's HNSWStore.Stats (internal/store/hnsw.go).
func (s *VectorStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make(map[string]int)
	for _, meta := range s.metadata {
		category := meta.Category
		if category == "" {
			category = "unknown"
		}
		categories[category]++
	}

	return Stats{
		Count:      len(s.vectors),
		Dimensions: s.config.Dimensions,
		Categories: categories,
	}
}

// Clear wipes all stored vectors and metadata and persists the empty state,
// mirroring storage.py's clear(), which calls save() after resetting.
func (s *VectorStore) Clear() error {
	s.mu.Lock()
	s.vectors = make(map[ItemID]vectormath.Vector)
	s.metadata = make(map[ItemID]Metadata)
	s.mu.Unlock()

	return s.Save()
}

// gobVectors is the on-disk shape of the vector snapshot, keeping the gob
// encoder's type registration stable across releases.
type gobVectors map[ItemID][]float32

// Save persists vectors (gob) and metadata (indented JSON) atomically via
// temp-file-then-rename, the same mechanic internal/index/hnsw_experimental.go
// uses for its own snapshot (grounded on amanmcp's HNSWStore.Save).
func (s *VectorStore) Save() error {
	s.mu.RLock()
	vectorsCopy := make(gobVectors, len(s.vectors))
	for id, v := range s.vectors {
		vectorsCopy[id] = []float32(v)
	}
	metaCopy := make(map[ItemID]Metadata, len(s.metadata))
	for id, m := range s.metadata {
		metaCopy[id] = m
	}
	s.mu.RUnlock()

	if err := saveGob(s.config.VectorsPath, vectorsCopy); err != nil {
		return errors.PersistenceError("failed to save vectors", err)
	}
	if err := saveJSON(s.config.MetadataPath, metaCopy); err != nil {
		return errors.PersistenceError("failed to save metadata", err)
	}
	return nil
}

// Load reads vectors and metadata from disk if present. A missing file is
// not an error; a corrupt file is reported but leaves the store usable
// (empty), matching storage.py's try/except-and-fall-back-to-{} behavior.
func (s *VectorStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fileExists(s.config.VectorsPath) {
		var vectors gobVectors
		if err := loadGob(s.config.VectorsPath, &vectors); err != nil {
			return errors.LoadCorruptionError("failed to load vectors", err)
		}
		s.vectors = make(map[ItemID]vectormath.Vector, len(vectors))
		for id, v := range vectors {
			s.vectors[id] = vectormath.Vector(v)
		}
	}

	if fileExists(s.config.MetadataPath) {
		var metadata map[ItemID]Metadata
		if err := loadJSON(s.config.MetadataPath, &metadata); err != nil {
			return errors.LoadCorruptionError("failed to load metadata", err)
		}
		s.metadata = metadata
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func saveGob(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := gob.NewEncoder(file).Encode(v); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func loadGob(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func saveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}
