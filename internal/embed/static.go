package embed

import (
	"hash/fnv"
	"math"
	"os"

	"github.com/Sadra3st/CBIR/internal/errors"
	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// shingleSize and shingleStride control the byte-shingle window used to fold
// file content into hash buckets, mirroring static768.go's token-shingle
// accumulation but applied to raw file bytes instead of text tokens.
const (
	shingleSize   = 8
	shingleStride = 4
)

// StaticImageEmbedder is a deterministic, dependency-free stand-in for the
// frozen ResNet extractor the original Python embedding/resnet.py wraps. It
// hashes overlapping byte
// shingles of the file content into buckets of a fixed-size vector and
// blends in a coarse byte-value histogram as a crude pixel-statistics
// signal, then L2-normalizes the result. Two files with identical bytes
// always embed to the same vector; this is what lets AddImage/Search be
// tested without a real model. Grounded on internal/embed/static768.go's
// hash-bucket-accumulation technique.
type StaticImageEmbedder struct {
	dim int
}

// NewStaticImageEmbedder creates a static embedder producing vectors of the
// given dimensionality.
func NewStaticImageEmbedder(dim int) *StaticImageEmbedder {
	return &StaticImageEmbedder{dim: dim}
}

// Dimensions reports the fixed vector length this embedder produces.
func (e *StaticImageEmbedder) Dimensions() int {
	return e.dim
}

// Embed reads the file at path and folds its bytes into a fixed-length
// vector. Grounded on static768.go's hash-and-accumulate loop.
func (e *StaticImageEmbedder) Embed(path string) (vectormath.Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InputMissingError("failed to read image file", err).WithDetail("path", path)
	}
	if len(data) == 0 {
		return nil, errors.InputMissingError("image file is empty", nil).WithDetail("path", path)
	}

	vec := make([]float64, e.dim)

	// Coarse signal: a 256-bucket byte-value histogram folded down into the
	// vector, standing in for pixel-intensity statistics.
	var histogram [256]int
	for _, b := range data {
		histogram[b]++
	}
	for value, count := range histogram {
		if count == 0 {
			continue
		}
		bucket := value % e.dim
		vec[bucket] += float64(count)
	}

	// Fine signal: overlapping byte shingles hashed into signed buckets,
	// so local byte patterns (not just the global histogram) shape the
	// embedding.
	for start := 0; start+shingleSize <= len(data); start += shingleStride {
		shingle := data[start : start+shingleSize]
		h := fnv.New64a()
		h.Write(shingle)
		sum := h.Sum64()

		bucket := int(sum % uint64(e.dim))
		weight := 1.0
		if sum&1 == 1 {
			weight = -1.0
		}
		vec[bucket] += weight
	}

	normalizeL2(vec)

	result := make(vectormath.Vector, e.dim)
	for i, v := range vec {
		result[i] = float32(v)
	}
	return result, nil
}

func normalizeL2(v []float64) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += x * x
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := 1.0 / math.Sqrt(sumSquares)
	for i := range v {
		v[i] *= invMagnitude
	}
}

var _ Embedder = (*StaticImageEmbedder)(nil)
