package index

import (
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"

	"github.com/Sadra3st/CBIR/internal/errors"
	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// hyperplaneHash is a single random-hyperplane locality-sensitive hash
// function: it projects a vector onto NumBits random hyperplanes and
// records which side of each plane the vector falls on. Grounded on
// original_source/lsh/hash_functions.py's RandomHyperplaneHash.
type hyperplaneHash struct {
	Dim     int
	NumBits int
	Planes  [][]float32 // NumBits x Dim
}

func newHyperplaneHash(dim, numBits int) *hyperplaneHash {
	planes := make([][]float32, numBits)
	for i := range planes {
		row := make([]float32, dim)
		for j := range row {
			row[j] = float32(rand.NormFloat64())
		}
		planes[i] = row
	}
	return &hyperplaneHash{Dim: dim, NumBits: numBits, Planes: planes}
}

// bucketKey is the side-of-plane signature used as a hash table key. It is
// comparable, matching the role of Python's tuple(projections > 0).
type bucketKey string

func (h *hyperplaneHash) hash(v vectormath.Vector) bucketKey {
	key := make([]byte, h.NumBits)
	for i, plane := range h.Planes {
		var dot float32
		for j, p := range plane {
			dot += p * v[j]
		}
		if dot > 0 {
			key[i] = 1
		}
	}
	return bucketKey(key)
}

// LSH is a multi-table random-hyperplane locality-sensitive hash index.
// Grounded method-for-method on original_source/lsh/lsh.py's LSH class.
//
// DeleteImage triggers a full rebuild elsewhere in the retriever, so LSH
// itself never removes a single ID from a bucket; Query instead revalidates
// every bucket candidate against the live vector map, silently dropping any
// ID the store no longer has.
type LSH struct {
	dim       int
	numBits   int
	numTables int

	tablesPath   string
	planesPrefix string

	hashFuncs []*hyperplaneHash
	tables    []map[bucketKey][]store.ItemID

	// vectors mirrors the live store's vectors so Query can revalidate
	// bucket candidates without the store handing out its map on every call.
	vectors map[store.ItemID]vectormath.Vector
}

// NewLSH creates an LSH index. persistencePrefix is combined with "_tables.gob"
// and "_planes_N.gob" to name the snapshot files, mirroring lsh.py's
// persistence_path + "_tables.pkl" / "_planes_{i}.npz" naming.
func NewLSH(dim, numBits, numTables int, persistencePrefix string) *LSH {
	l := &LSH{
		dim:          dim,
		numBits:      numBits,
		numTables:    numTables,
		tablesPath:   persistencePrefix + "_tables.gob",
		planesPrefix: persistencePrefix + "_planes_",
	}
	l.reset()
	return l
}

func (l *LSH) reset() {
	l.hashFuncs = make([]*hyperplaneHash, l.numTables)
	l.tables = make([]map[bucketKey][]store.ItemID, l.numTables)
	for i := range l.hashFuncs {
		l.hashFuncs[i] = newHyperplaneHash(l.dim, l.numBits)
		l.tables[i] = make(map[bucketKey][]store.ItemID)
	}
}

// Build discards the existing tables and re-indexes every vector, then
// persists the result, matching lsh.py's index() which rebuilds and saves.
func (l *LSH) Build(vectors map[store.ItemID]vectormath.Vector) error {
	l.reset()
	l.vectors = vectors
	for id, v := range vectors {
		l.addLocked(id, v)
	}
	return l.Save()
}

// Add inserts a single vector into every table without rebuilding, matching
// lsh.py's add_vector(). Unlike Build, it does not persist; callers batch
// persistence themselves (the Retriever calls Save once per mutating call).
func (l *LSH) Add(id store.ItemID, v vectormath.Vector) error {
	if l.vectors == nil {
		l.vectors = make(map[store.ItemID]vectormath.Vector)
	}
	l.vectors[id] = v
	l.addLocked(id, v)
	return nil
}

func (l *LSH) addLocked(id store.ItemID, v vectormath.Vector) {
	for i, hf := range l.hashFuncs {
		key := hf.hash(v)
		l.tables[i][key] = append(l.tables[i][key], id)
	}
}

// Query collects every ID sharing a bucket with q in any table, then ranks
// the union by Euclidean distance against the live vector map, exactly as
// lsh.py's query() does.
func (l *LSH) Query(q vectormath.Vector, k int) ([]Neighbor, error) {
	candidates := make(map[store.ItemID]struct{})
	for i, hf := range l.hashFuncs {
		key := hf.hash(q)
		for _, id := range l.tables[i][key] {
			candidates[id] = struct{}{}
		}
	}

	scores := make([]Neighbor, 0, len(candidates))
	for id := range candidates {
		vec, ok := l.vectors[id]
		if !ok {
			continue
		}
		scores = append(scores, Neighbor{ID: id, Distance: vectormath.Euclidean(q, vec)})
	}

	sortNeighbors(scores)

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// SetVectors attaches the live vector map without touching the hash
// tables, for the startup path where tables were loaded from disk via
// Load and only need revalidation data wired back in.
func (l *LSH) SetVectors(vectors map[store.ItemID]vectormath.Vector) {
	l.vectors = vectors
}

// HasBuckets reports whether any table has at least one populated bucket,
// used at startup to decide between a full rebuild and a lighter
// in-memory-only rebuild.
func (l *LSH) HasBuckets() bool {
	for _, table := range l.tables {
		if len(table) > 0 {
			return true
		}
	}
	return false
}

// Clear empties every table and persists the empty state.
func (l *LSH) Clear() {
	l.reset()
	_ = l.Save()
}

type lshTablesFile struct {
	Tables [][]lshBucket
}

type lshBucket struct {
	Key bucketKey
	IDs []store.ItemID
}

// Save writes the hash tables and hyperplanes to disk under an exclusive
// cross-process file lock, grounded on internal/embed/lock.go's use of
// github.com/gofrs/flock and on internal/store/hnsw.go's atomic
// temp-file-then-rename mechanics.
func (l *LSH) Save() error {
	dir := filepath.Dir(l.tablesPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.PersistenceError("failed to create lsh directory", err)
	}

	fl := flock.New(l.tablesPath + ".lock")
	if err := fl.Lock(); err != nil {
		return errors.PersistenceError("failed to acquire lsh lock", err)
	}
	defer fl.Unlock()

	file := lshTablesFile{Tables: make([][]lshBucket, len(l.tables))}
	for i, table := range l.tables {
		buckets := make([]lshBucket, 0, len(table))
		for key, ids := range table {
			buckets = append(buckets, lshBucket{Key: key, IDs: ids})
		}
		file.Tables[i] = buckets
	}

	if err := saveGobFile(l.tablesPath, file); err != nil {
		return errors.PersistenceError("failed to save lsh tables", err)
	}

	for i, hf := range l.hashFuncs {
		if err := saveGobFile(l.planePath(i), hf); err != nil {
			return errors.PersistenceError("failed to save lsh planes", err)
		}
	}

	return nil
}

// Load reads the hash tables and hyperplanes back from disk. A missing
// tables file is not an error: the index simply stays freshly initialized,
// matching lsh.py's _load() returning False when nothing was saved yet.
func (l *LSH) Load() error {
	if !gobFileExists(l.tablesPath) {
		return nil
	}

	fl := flock.New(l.tablesPath + ".lock")
	if err := fl.Lock(); err != nil {
		return errors.PersistenceError("failed to acquire lsh lock", err)
	}
	defer fl.Unlock()

	var file lshTablesFile
	if err := loadGobFile(l.tablesPath, &file); err != nil {
		return errors.LoadCorruptionError("failed to load lsh tables", err)
	}

	hashFuncs := make([]*hyperplaneHash, l.numTables)
	for i := 0; i < l.numTables; i++ {
		var hf hyperplaneHash
		if err := loadGobFile(l.planePath(i), &hf); err != nil {
			return errors.LoadCorruptionError("failed to load lsh planes", err)
		}
		hashFuncs[i] = &hf
	}

	tables := make([]map[bucketKey][]store.ItemID, len(file.Tables))
	for i, buckets := range file.Tables {
		table := make(map[bucketKey][]store.ItemID, len(buckets))
		for _, b := range buckets {
			table[b.Key] = b.IDs
		}
		tables[i] = table
	}

	l.hashFuncs = hashFuncs
	l.tables = tables
	return nil
}

func (l *LSH) planePath(i int) string {
	return fmt.Sprintf("%s%d.gob", l.planesPrefix, i)
}

func saveGobFile(path string, v any) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(file).Encode(v); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func loadGobFile(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return gob.NewDecoder(file).Decode(v)
}

func gobFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func sortNeighbors(n []Neighbor) {
	sort.Slice(n, func(i, j int) bool { return n[i].Distance < n[j].Distance })
}

var (
	_ Engine      = (*LSH)(nil)
	_ Incremental = (*LSH)(nil)
	_ Persistable = (*LSH)(nil)
)
