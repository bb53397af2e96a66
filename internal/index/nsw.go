package index

import (
	"container/heap"
	"math/rand"
	"sort"

	"github.com/Sadra3st/CBIR/internal/store"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// nswDistItem pairs an item ID with its distance to the current query,
// grounded on the distItem/minDistHeap/maxDistHeap idiom in
// other_examples/233d3ff0_haivivi-giztoy__go-pkg-vecstore-hnsw.go.go, used
// here in place of Python's heapq-on-tuples.
type nswDistItem struct {
	id   store.ItemID
	dist float64
}

// nswMinHeap pops the closest item first; used as the beam search frontier.
type nswMinHeap []nswDistItem

func (h nswMinHeap) Len() int            { return len(h) }
func (h nswMinHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h nswMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nswMinHeap) Push(x any)         { *h = append(*h, x.(nswDistItem)) }
func (h *nswMinHeap) Pop() any           { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }

// nswMaxHeap pops the farthest item first; used to keep the running result
// set bounded to ef entries.
type nswMaxHeap []nswDistItem

func (h nswMaxHeap) Len() int            { return len(h) }
func (h nswMaxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h nswMaxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nswMaxHeap) Push(x any)         { *h = append(*h, x.(nswDistItem)) }
func (h *nswMaxHeap) Pop() any           { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }

// NSW is a Navigable Small World graph index: nodes connect to their
// closest neighbors at insertion time and search proceeds by greedy beam
// walk. Grounded method-for-method on original_source/knn/nsw.py's
// NSWIndex.
type NSW struct {
	m              int
	efConstruction int
	ef             int

	graph      map[store.ItemID][]store.ItemID
	vectors    map[store.ItemID]vectormath.Vector
	enterPoint store.ItemID
	hasEntry   bool
}

// NewNSW creates an NSW graph with the given max-degree,
// construction-time beam width, and query-time beam width. The two beam
// widths are independent: insertion always walks with efConstruction,
// while Query walks with ef, the way NSWIndex.__init__'s ef_construction
// and NSWIndex.query's own ef default (50) are two separate knobs.
func NewNSW(m, efConstruction, ef int) *NSW {
	return &NSW{
		m:              m,
		efConstruction: efConstruction,
		ef:             ef,
		graph:          make(map[store.ItemID][]store.ItemID),
		vectors:        make(map[store.ItemID]vectormath.Vector),
	}
}

// Build discards the graph and reinserts every vector in random order, so
// the resulting topology doesn't depend on map iteration order, matching
// nsw.py's build() which shuffles IDs before inserting.
func (n *NSW) Build(vectors map[store.ItemID]vectormath.Vector) error {
	n.vectors = vectors
	n.graph = make(map[store.ItemID][]store.ItemID)
	n.enterPoint = ""
	n.hasEntry = false

	ids := make([]store.ItemID, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	for _, id := range ids {
		n.insert(id)
	}
	return nil
}

// Add inserts a single new vector into the live graph.
func (n *NSW) Add(id store.ItemID, v vectormath.Vector) error {
	n.vectors[id] = v
	n.insert(id)
	return nil
}

func (n *NSW) insert(newID store.ItemID) {
	if !n.hasEntry {
		n.graph[newID] = nil
		n.enterPoint = newID
		n.hasEntry = true
		return
	}

	candidates := n.searchInternal(n.vectors[newID], n.m, n.efConstruction)

	neighbors := make([]store.ItemID, len(candidates))
	for i, c := range candidates {
		neighbors[i] = c.ID
	}
	n.graph[newID] = neighbors

	for _, neighbor := range neighbors {
		if _, ok := n.graph[neighbor]; !ok {
			continue
		}
		n.graph[neighbor] = append(n.graph[neighbor], newID)
		if len(n.graph[neighbor]) > n.m*2 {
			n.prune(neighbor)
		}
	}
}

// prune keeps only the m closest neighbors of node, dropping the rest.
func (n *NSW) prune(nodeID store.ItemID) {
	neighbors := n.graph[nodeID]
	vecNode := n.vectors[nodeID]

	type scored struct {
		dist float64
		id   store.ItemID
	}
	dists := make([]scored, 0, len(neighbors))
	for _, nb := range neighbors {
		if v, ok := n.vectors[nb]; ok {
			dists = append(dists, scored{dist: vectormath.Euclidean(vecNode, v), id: nb})
		}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	limit := n.m
	if limit > len(dists) {
		limit = len(dists)
	}
	kept := make([]store.ItemID, limit)
	for i := 0; i < limit; i++ {
		kept[i] = dists[i].id
	}
	n.graph[nodeID] = kept
}

// searchInternal performs the greedy beam walk from the entry point,
// returning up to k neighbors sorted by ascending distance. Grounded on
// nsw.py's _search_internal, translated from heapq-on-negated-tuples to
// Go's container/heap with a dedicated min-heap (candidate frontier) and
// max-heap (bounded result set).
func (n *NSW) searchInternal(query vectormath.Vector, k, ef int) []Neighbor {
	if !n.hasEntry {
		return nil
	}

	startDist := vectormath.Euclidean(query, n.vectors[n.enterPoint])

	candidates := &nswMinHeap{{id: n.enterPoint, dist: startDist}}
	heap.Init(candidates)

	results := &nswMaxHeap{{id: n.enterPoint, dist: startDist}}
	heap.Init(results)

	visited := map[store.ItemID]struct{}{n.enterPoint: {}}

	for candidates.Len() > 0 {
		curr := heap.Pop(candidates).(nswDistItem)

		furthest := (*results)[0].dist
		if curr.dist > furthest && results.Len() >= ef {
			break
		}

		for _, neighbor := range n.graph[curr.id] {
			if _, seen := visited[neighbor]; seen {
				continue
			}
			v, ok := n.vectors[neighbor]
			if !ok {
				continue
			}
			visited[neighbor] = struct{}{}

			dist := vectormath.Euclidean(query, v)
			if dist < furthest || results.Len() < ef {
				heap.Push(candidates, nswDistItem{id: neighbor, dist: dist})
				heap.Push(results, nswDistItem{id: neighbor, dist: dist})
				if results.Len() > ef {
					heap.Pop(results)
					furthest = (*results)[0].dist
				}
			}
		}
	}

	final := make([]Neighbor, results.Len())
	for i, r := range *results {
		final[i] = Neighbor{ID: r.id, Distance: r.dist}
	}
	sort.Slice(final, func(i, j int) bool { return final[i].Distance < final[j].Distance })

	if k > len(final) {
		k = len(final)
	}
	return final[:k]
}

// Query runs a beam search of width n.ef from the entry point, independent
// of the beam width used to insert nodes into the graph.
func (n *NSW) Query(q vectormath.Vector, k int) ([]Neighbor, error) {
	if !n.hasEntry {
		return nil, nil
	}
	return n.searchInternal(q, k, n.ef), nil
}

// Clear empties the graph.
func (n *NSW) Clear() {
	n.graph = make(map[store.ItemID][]store.ItemID)
	n.vectors = make(map[store.ItemID]vectormath.Vector)
	n.enterPoint = ""
	n.hasEntry = false
}

var (
	_ Engine      = (*NSW)(nil)
	_ Incremental = (*NSW)(nil)
)
