package retriever

import "github.com/Sadra3st/CBIR/internal/vectormath"

// Method names one of the five search strategies Search can dispatch to.
// Unknown values, and methods whose engine hasn't finished its background
// build, fall back to MethodBruteForce, which needs no precomputed index.
type Method string

const (
	MethodBruteForce       Method = "brute_force"
	MethodLSH              Method = "lsh"
	MethodNSW              Method = "nsw"
	MethodAnnoy            Method = "annoy"
	MethodHNSWExperimental Method = "hnsw-experimental"
)

// DefaultCategory is assigned when AddImage/ImportBatch receive no category.
const DefaultCategory = "unknown"

// SearchQuery selects either a file path to embed or a raw vector, exactly
// one of which must be set.
type SearchQuery struct {
	Path   string
	Vector vectormath.Vector
	K      int
	Method Method
}

// SearchResult enriches an engine neighbor with the metadata a caller needs
// to render a result without a second lookup against the store.
type SearchResult struct {
	ID        string
	Score     float64
	Path      string
	Category  string
	Filename  string
	Thumbnail []byte
}

// ImportItem is one record in a bulk ImportBatch call.
type ImportItem struct {
	Vector    vectormath.Vector
	Path      string
	Category  string
	Thumbnail []byte
}
