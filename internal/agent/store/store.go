package store

import (
	"context"
	"errors"
)

// Document kinds persisted by the platform.
const (
	KindAgent      = "agent"
	KindStudio     = "studio"
	KindCustomTool = "custom_tool"
	KindArtwork    = "artwork"
)

// ErrNotFound reports a missing document.
var ErrNotFound = errors.New("document not found")

// RecordStore is generic keyed storage of JSON documents, namespaced by
// kind. The relational engine behind it is a collaborator concern.
type RecordStore interface {
	// Get retrieves the raw document for (kind, id), or ErrNotFound.
	Get(ctx context.Context, kind, id string) ([]byte, error)

	// Put stores the document under (kind, id), overwriting any prior value.
	Put(ctx context.Context, kind, id string, doc []byte) error

	// Delete removes the document; it reports whether one existed.
	Delete(ctx context.Context, kind, id string) (bool, error)

	// List returns all ids stored under the kind.
	List(ctx context.Context, kind string) ([]string, error)
}
