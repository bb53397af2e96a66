package index

import (
	"math"
	"math/rand"
	"sort"

	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// annoyNode is a single node of an Annoy random-projection tree: either a
// leaf holding a bucket of IDs, or an internal split defined by a
// hyperplane and offset. Grounded on original_source/knn/annoy.py's
// AnnoyNode.
type annoyNode struct {
	left, right *annoyNode
	hyperplane  vectormath.Vector
	offset      float64
	bucket      []store.ItemID
}

func (n *annoyNode) isLeaf() bool {
	return n.bucket != nil
}

// Annoy is a forest of random-projection binary trees. Each tree splits its
// point set along a hyperplane equidistant from two randomly chosen points,
// recursing until a subset is small enough to become a leaf bucket.
// Grounded recursion-for-recursion on original_source/knn/annoy.py's
// AnnoyIndex.
//
// Annoy has no incremental insert, matching AnnoyIndex in the original: a
// tree's splits are chosen from the full point set at build time, so Annoy
// intentionally does not implement the Incremental interface. AddImage
// never touches it; only ImportBatch/DeleteImage/Reset rebuild it.
type Annoy struct {
	numTrees    int
	maxLeafSize int

	roots   []*annoyNode
	vectors map[store.ItemID]vectormath.Vector
}

// NewAnnoy creates an Annoy forest with the given tree count and leaf size.
func NewAnnoy(numTrees, maxLeafSize int) *Annoy {
	return &Annoy{numTrees: numTrees, maxLeafSize: maxLeafSize}
}

// Build discards the forest and grows numTrees fresh trees over vectors.
func (a *Annoy) Build(vectors map[store.ItemID]vectormath.Vector) error {
	a.vectors = vectors
	a.roots = make([]*annoyNode, 0, a.numTrees)

	ids := make([]store.ItemID, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}

	for i := 0; i < a.numTrees; i++ {
		a.roots = append(a.roots, a.buildTree(ids))
	}
	return nil
}

func (a *Annoy) buildTree(indices []store.ItemID) *annoyNode {
	if len(indices) <= a.maxLeafSize {
		return &annoyNode{bucket: indices}
	}

	if len(indices) < 2 {
		return &annoyNode{bucket: indices}
	}

	i1, i2 := distinctPairIndices(len(indices))
	idx1, idx2 := indices[i1], indices[i2]
	vec1, vec2 := a.vectors[idx1], a.vectors[idx2]

	normal := make(vectormath.Vector, len(vec1))
	for i := range normal {
		normal[i] = vec1[i] - vec2[i]
	}

	var normLen float64
	for _, v := range normal {
		normLen += float64(v) * float64(v)
	}
	normLen = math.Sqrt(normLen)

	if normLen == 0 {
		for i := range normal {
			normal[i] = float32(rand.NormFloat64())
		}
	} else {
		for i := range normal {
			normal[i] = float32(float64(normal[i]) / normLen)
		}
	}

	midpoint := make(vectormath.Vector, len(vec1))
	for i := range midpoint {
		midpoint[i] = (vec1[i] + vec2[i]) / 2
	}
	offset := -dot(normal, midpoint)

	var leftIdxs, rightIdxs []store.ItemID
	for _, idx := range indices {
		d := dot(normal, a.vectors[idx]) + offset
		if d > 0 {
			rightIdxs = append(rightIdxs, idx)
		} else {
			leftIdxs = append(leftIdxs, idx)
		}
	}

	if len(leftIdxs) == 0 || len(rightIdxs) == 0 {
		return &annoyNode{bucket: indices}
	}

	return &annoyNode{
		hyperplane: normal,
		offset:     offset,
		left:       a.buildTree(leftIdxs),
		right:      a.buildTree(rightIdxs),
	}
}

// Query searches every tree and ranks the union of visited leaf buckets by
// true Euclidean distance, matching annoy.py's query().
func (a *Annoy) Query(q vectormath.Vector, k int) ([]Neighbor, error) {
	candidates := make(map[store.ItemID]struct{})
	for _, root := range a.roots {
		a.traverse(root, q, candidates)
	}

	results := make([]Neighbor, 0, len(candidates))
	for id := range candidates {
		if v, ok := a.vectors[id]; ok {
			results = append(results, Neighbor{ID: id, Distance: vectormath.Euclidean(q, v)})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (a *Annoy) traverse(node *annoyNode, v vectormath.Vector, candidates map[store.ItemID]struct{}) {
	if node.isLeaf() {
		for _, id := range node.bucket {
			candidates[id] = struct{}{}
		}
		return
	}

	d := dot(node.hyperplane, v) + node.offset
	if d > 0 {
		a.traverse(node.right, v, candidates)
	} else {
		a.traverse(node.left, v, candidates)
	}
}

// Clear empties the forest.
func (a *Annoy) Clear() {
	a.roots = nil
	a.vectors = nil
}

func dot(a, b vectormath.Vector) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// distinctPairIndices picks two distinct indices in [0, n) uniformly at
// random, matching np.random.choice(indices, 2, replace=False).
func distinctPairIndices(n int) (int, int) {
	i1 := rand.Intn(n)
	i2 := rand.Intn(n - 1)
	if i2 >= i1 {
		i2++
	}
	return i1, i2
}

var _ Engine = (*Annoy)(nil)
