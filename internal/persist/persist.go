// Package persist stores the client state snapshot between runs.
//
// Backends deal in opaque bytes under a key; encoding the snapshot is the
// caller's business.
package persist

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing is stored under the key
var ErrNotFound = errors.New("snapshot not found")

// Persister is a key/value snapshot store
type Persister interface {
	// Save stores data under key, replacing what was there
	Save(ctx context.Context, key string, data []byte) error

	// Load returns the data under key, or ErrNotFound
	Load(ctx context.Context, key string) ([]byte, error)

	// Purge removes key. Purging a missing key is not an error.
	Purge(ctx context.Context, key string) error

	// Close releases the backend's resources
	Close() error
}
