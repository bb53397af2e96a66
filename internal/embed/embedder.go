// Package embed turns an image file on disk into a fixed-length vector.
// Embedder is intentionally narrow: embedding is treated as an opaque black
// box, so this package only needs to produce a vector and report its
// dimensionality, not manage batching, progress callbacks, or model
// lifecycle the way amanmcp's local-LLM embedders did.
package embed

import "github.com/Sadra3st/CBIR/internal/vectormath"

// Embedder converts an image file into a vector. Grounded on
// internal/embed/types.go's interface shape, trimmed to the two methods
// an image embedding pipeline needs.
type Embedder interface {
	Embed(path string) (vectormath.Vector, error)
	Dimensions() int
}
