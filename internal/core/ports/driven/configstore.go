package driven

// ConfigStore is a flat, dot-keyed view over the configuration file used by
// `scribe config`. Keys look like "embedding.provider" or "cache.ttl".
type ConfigStore interface {
	// Get returns the raw value for key and whether it is set.
	Get(key string) (any, bool)

	// Keys lists every set key in sorted order.
	Keys() []string

	// Set stores a value and writes the file.
	Set(key string, value any) error

	// Delete removes a key and writes the file. Deleting an unset key is a no-op.
	Delete(key string) error

	// Path returns the file backing the store.
	Path() string
}
