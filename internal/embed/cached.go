package embed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Sadra3st/CBIR/internal/vectormath"
)

// DefaultEmbeddingCacheSize is used when a caller configures a cache size
// of zero or less.
const DefaultEmbeddingCacheSize = 1024

// CachedEmbedder wraps an Embedder with LRU caching keyed on the image
// path's content identity: path plus mtime plus the inner embedder's model
// identity. Re-adding an unchanged file never recomputes its embedding;
// editing the file in place invalidates the cached entry automatically,
// a supplement over the original Python implementation (it re-embedded on
// every add_image call unconditionally). Grounded on
// internal/embed/cached.go, adapted from a text+model cache key to
// path+mtime+model.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, vectormath.Vector]
}

// NewCachedEmbedder wraps inner with an LRU cache of the given size.
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbeddingCacheSize
	}
	cache, _ := lru.New[string, vectormath.Vector](cacheSize)
	return &CachedEmbedder{inner: inner, cache: cache}
}

// cacheKey hashes the file's path, size and modification time together
// with the inner embedder's concrete type, so a changed file or a swapped
// embedder never serves a stale vector.
func (c *CachedEmbedder) cacheKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	combined := fmt.Sprintf("%s\x00%d\x00%d\x00%T", path, info.Size(), info.ModTime().UnixNano(), c.inner)
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:]), nil
}

// Embed returns the cached embedding for path if present and still fresh,
// otherwise computes and caches it.
func (c *CachedEmbedder) Embed(path string) (vectormath.Vector, error) {
	key, err := c.cacheKey(path)
	if err != nil {
		return c.inner.Embed(path)
	}

	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// Dimensions passes through to the inner embedder.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Inner returns the wrapped embedder.
func (c *CachedEmbedder) Inner() Embedder {
	return c.inner
}

var _ Embedder = (*CachedEmbedder)(nil)
