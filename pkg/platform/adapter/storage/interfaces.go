// Package storage defines the object storage abstraction used for model artifacts.
// Backends live in subpackages: local (a directory tree) and gcs (Google Cloud Storage).
package storage

import (
	"context"
	"io"
)

// StorageConnection is a named connection to an object store. Objects are
// addressed by slash separated names relative to the connection's root.
type StorageConnection interface {
	// Type returns the backend type ("local" or "gcs").
	Type() string
	// Name returns the connection name.
	Name() string
	// Close releases any client held by the connection.
	Close() error
	// Upload writes data to objectName, replacing any previous content.
	Upload(ctx context.Context, objectName string, data io.Reader, contentType string) error
	// Download opens objectName. The caller must close the returned reader.
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for every object whose name starts with prefix.
	ListObjects(ctx context.Context, prefix string, fn func(objectName string) error) error
	// DeleteObject removes objectName. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, objectName string) error
	// Check verifies that the store is reachable and writable.
	Check(ctx context.Context) error
}
