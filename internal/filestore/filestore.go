// Package filestore provides an abstraction for file storage operations.
//
// It defines a FileStore interface implemented by the local-disk and MinIO
// backends. The backend is chosen once at process startup from configuration
// and injected into the storage lifecycle manager; no caller-visible behavior
// differs between backends except latency and the reported kind.
package filestore

import (
	"context"
	"io"
	"time"
)

// FileStore defines the interface for file storage operations.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Upload uploads a file to the specified path.
	// The implementation detects size and content type from the reader.
	// Returns the file info after successful upload.
	Upload(ctx context.Context, path string, reader io.Reader) (*FileInfo, error)

	// Get retrieves a file and its metadata from the specified path.
	// The caller is responsible for closing File.Content.
	Get(ctx context.Context, path string) (*File, error)

	// Delete removes a file at the specified path.
	// Deleting an absent path is not an error.
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists at the specified path.
	Exists(ctx context.Context, path string) (bool, error)

	// ListOlderThan returns the paths of all stored files whose age
	// exceeds the given duration. Used by retention sweeps to find
	// objects left behind by previous process runs.
	ListOlderThan(ctx context.Context, age time.Duration) ([]string, error)

	// Kind reports the backend kind ("local" or "minio") for operational visibility.
	Kind() string
}

// File represents a stored file with its content and metadata.
type File struct {
	Content io.ReadCloser
	Info    FileInfo
}

// FileInfo contains metadata about a stored file.
type FileInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}
