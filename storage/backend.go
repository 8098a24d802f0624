// Package storage provides the pluggable backends that benchmarks run
// against: a local filesystem backend and an S3-compatible HTTP backend.
package storage

import "context"

// Backend is the capability contract shared by all storage variants.
// Keys are forward-slash-delimited namespace paths. Implementations must be
// safe for concurrent use by multiple goroutines.
type Backend interface {
	// Name returns a human-readable description of the backend for reports.
	Name() string

	// Save writes content at the given key, overwriting any existing object.
	Save(ctx context.Context, key string, data []byte) error

	// Load returns the stored content. An absent key is reported through the
	// found flag, not as an error.
	Load(ctx context.Context, key string) (data []byte, found bool, err error)

	// Exists checks whether a key is present. It is best-effort: on an
	// ambiguous network failure it returns false rather than an error.
	Exists(ctx context.Context, key string) bool

	// ListKeys returns a lazy iterator over all keys under the given prefix.
	// The listing is paginated internally; restart by calling ListKeys again.
	ListKeys(ctx context.Context, prefix string) KeyIterator
}

// Cleaner is the optional cleanup capability. Backends that support deletion
// implement it alongside Backend. Deleting an already-absent key is success.
type Cleaner interface {
	// Delete removes a single key. It returns true when the key is gone,
	// including when it did not exist in the first place.
	Delete(ctx context.Context, key string) bool

	// DeletePrefix removes every key under the prefix and returns how many
	// keys were deleted.
	DeletePrefix(ctx context.Context, prefix string) int
}

// KeyIterator walks a key listing one entry at a time. After Next returns
// false, Err reports whether the listing stopped because of a failure.
type KeyIterator interface {
	Next() (string, bool)
	Err() error
}
