// Package store provides the flat-map vector store and JSON metadata
// persistence that back the CBIR retrieval core.
package store

import "time"

// ItemID uniquely identifies an indexed image.
type ItemID = string

// Metadata holds the caller-supplied attributes attached to an image at
// insertion time, plus the bookkeeping fields the store itself maintains.
// Path, Category and Filename mirror the original metadata file shape
// verbatim; Tags/Extra/timestamps are this implementation's supplement.
type Metadata struct {
	// Path is the original filesystem path or source identifier of the image.
	Path string `json:"path,omitempty"`

	// Category is the caller-supplied classification label, defaulting to
	// "unknown" when not given.
	Category string `json:"category,omitempty"`

	// Filename is the base name of Path, recorded separately so callers can
	// display it without re-deriving it from the full path.
	Filename string `json:"filename,omitempty"`

	// Tags are free-form labels supplied by the caller, supplementing
	// Category with finer-grained classification.
	Tags []string `json:"tags,omitempty"`

	// Thumbnail is an optional preview image. encoding/json marshals a
	// []byte field as base64, matching the wire format the original
	// Python service produces.
	Thumbnail []byte `json:"thumbnail,omitempty"`

	// Extra carries any additional caller-supplied key/value pairs.
	Extra map[string]string `json:"extra,omitempty"`

	// CreatedAt is when the item was first inserted.
	CreatedAt time.Time `json:"created_at,omitempty"`

	// UpdatedAt is when the item's vector or metadata was last changed.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of m, so callers handed a Metadata value from
// the store cannot mutate the store's own state through it.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	if m.Thumbnail != nil {
		out.Thumbnail = append([]byte(nil), m.Thumbnail...)
	}
	if m.Extra != nil {
		out.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// VectorStoreConfig configures the flat-map VectorStore.
type VectorStoreConfig struct {
	// VectorsPath is where the gob-encoded vector map is persisted.
	VectorsPath string

	// MetadataPath is where the JSON metadata map is persisted.
	MetadataPath string

	// Dimensions is the fixed vector length every inserted item must match.
	Dimensions int
}
