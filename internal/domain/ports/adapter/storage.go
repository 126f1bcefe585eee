package adapter

import "context"

// BlobObject is one stored object as returned by prefix listing.
type BlobObject struct {
	Key  string
	Size int64
}

// BlobStore is the object-storage port. Objects are public once stored;
// PublicURL must be deterministic from the key alone.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	ListPrefix(ctx context.Context, prefix string) ([]BlobObject, error)
	PublicURL(key string) string
}
