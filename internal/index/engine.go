// Package index implements three approximate nearest-neighbor strategies
// (LSH, NSW, Annoy) plus brute-force exact search, each built directly
// against the vector map exposed by internal/store.
//
// Every index is a read-mostly structure rebuilt from the store's current
// contents rather than a live replica the store pushes updates into; this
// matches original_source/vector_db/crud.py's ImageRetriever, which
// reconstructs each approximate index wholesale on import/delete/reset and
// leaves exact search as the only structure with no build step at all.
package index

import (
	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// Neighbor is a single nearest-neighbor search result.
type Neighbor struct {
	ID       store.ItemID
	Distance float64
}

// Engine is the capability set an approximate index exposes. Indexes that
// cannot update incrementally (Annoy) simply omit an Add method; callers
// type-assert for it rather than the interface carrying a no-op stub for
// every implementation.
type Engine interface {
	// Build discards any existing structure and rebuilds it from the given
	// vectors.
	Build(vectors map[store.ItemID]vectormath.Vector) error

	// Query returns up to k approximate nearest neighbors of q, ordered by
	// increasing distance.
	Query(q vectormath.Vector, k int) ([]Neighbor, error)

	// Clear empties the index and releases any backing resources.
	Clear()
}

// Incremental is implemented by engines that support inserting a single new
// item without a full rebuild (LSH and NSW). Annoy does not implement it.
type Incremental interface {
	Add(id store.ItemID, v vectormath.Vector) error
}

// Persistable is implemented by engines with an on-disk snapshot format.
type Persistable interface {
	Save() error
	Load() error
}
