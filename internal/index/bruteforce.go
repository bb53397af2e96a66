package index

import (
	"fmt"
	"sort"

	"github.com/Sadra3st/CBIR/internal/errors"
	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// BruteForce performs exact k-nearest-neighbor search by scanning every
// stored vector. Grounded on original_source/knn/brute_force.py's
// BruteForceSearch; unlike the three approximate engines it takes its
// metric at construction time rather than hard-coding Euclidean, mirroring
// the Python class's constructor argument.
type BruteForce struct {
	metric   vectormath.Metric
	distance func(a, b vectormath.Vector) float64
	vectors  map[store.ItemID]vectormath.Vector
}

// NewBruteForce creates a BruteForce engine using the named metric.
func NewBruteForce(metric vectormath.Metric) (*BruteForce, error) {
	fn, ok := vectormath.Of(metric)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidMetric, fmt.Sprintf("metric %q not supported", metric), nil)
	}
	return &BruteForce{
		metric:   metric,
		distance: fn,
		vectors:  make(map[store.ItemID]vectormath.Vector),
	}, nil
}

// Build replaces the scanned vector set.
func (b *BruteForce) Build(vectors map[store.ItemID]vectormath.Vector) error {
	b.vectors = vectors
	return nil
}

// Query scans every vector and returns the k closest by the configured metric.
func (b *BruteForce) Query(q vectormath.Vector, k int) ([]Neighbor, error) {
	scores := make([]Neighbor, 0, len(b.vectors))
	for id, vec := range b.vectors {
		scores = append(scores, Neighbor{ID: id, Distance: b.distance(q, vec)})
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].Distance < scores[j].Distance })

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Clear empties the scanned vector set.
func (b *BruteForce) Clear() {
	b.vectors = make(map[store.ItemID]vectormath.Vector)
}

var _ Engine = (*BruteForce)(nil)
