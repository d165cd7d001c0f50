package driven

import "context"

// BlobStore is durable object storage addressed by slash-separated keys.
// Persisted index blobs and manifests live here.
type BlobStore interface {
	// Put writes data under key atomically: readers see either the previous
	// object or the complete new one, never a partial write.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads the object. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether an object is present under key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns keys with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Location returns a human-readable address of key (path or URL).
	Location(key string) string
}
