// Package blob persists encrypted payloads by opaque identifier. The store
// attaches no meaning to identifiers; the vault engine generates them.
package blob

import "context"

// Store is a flat namespace of opaque-named binary objects.
type Store interface {
	// Put writes data under key. On S3 the object becomes visible only
	// once the write completes, so a partially written blob is never
	// observable under its final key.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the payload or common.ErrorNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}
