// Package storage writes pipeline artifacts to S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// ObjectStorage is the subset of an object store the archive needs.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetURL(key string) string
}
