package service

import "context"

// BlobStore is a write-once object store for item images.
type BlobStore interface {
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes an object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}
