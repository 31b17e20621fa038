package domain

import (
	"context"
	"io"
)

// BlobWriter uploads opaque objects (item images) to object storage.
type BlobWriter interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
}

// BlobReader retrieves objects from object storage. Get returns ErrNotFound
// when the key does not exist; the caller closes the returned reader.
type BlobReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// BlobDeleter removes objects from object storage.
type BlobDeleter interface {
	Delete(ctx context.Context, key string) error
}
