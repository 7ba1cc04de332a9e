package storage

import (
	"context"
	"io"
)

// ObjectStore uploads and removes binary assets by key. Writes overwrite any
// existing object with the same key.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Delete removes key. A missing object is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key.
	URL(key string) string
}
