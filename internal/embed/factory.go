package embed

import (
	"fmt"
	"time"

	"github.com/Sadra3st/CBIR/internal/config"
)

// New builds the configured Embedder, wrapped in an LRU cache, matching
// amanmcp's embed.Embedder multi-backend selection in
// internal/embed/factory.go: one switch over a provider string, every
// branch wrapped the same way before it reaches callers.
func New(cfg config.EmbedderConfig, dim int) (Embedder, error) {
	var inner Embedder

	switch cfg.Provider {
	case "static", "":
		inner = NewStaticImageEmbedder(dim)
	case "external":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("embedder provider %q requires an endpoint", cfg.Provider)
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		inner = NewExternalEmbedder(cfg.Endpoint, dim, timeout, cfg.MaxRetries)
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.Provider)
	}

	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
