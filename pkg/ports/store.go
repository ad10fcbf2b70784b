package ports

import (
	"context"
	"time"
)

// ObjectStore is the persistent, content-addressed artifact store.
// Paths are artifact filenames such as "123_0a1b2c3d4e5f6a7b.png".
type ObjectStore interface {
	// Exists reports whether an artifact is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Get retrieves the artifact stored at path.
	// Returns domain.ErrNotFound if nothing is stored there.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put stores the artifact, replacing any previous content.
	Put(ctx context.Context, path string, data []byte) error

	// Delete removes the artifact. Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) error
}

// ObjectLister is implemented by stores that can enumerate their paths.
// Admin tooling uses it to invalidate by token id or range.
type ObjectLister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// ByteCache is a shared, expiring cache tier that sits between the
// in-process caches and the ObjectStore (e.g. Redis shared by replicas).
type ByteCache interface {
	// Get returns domain.ErrNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// DeleteFunc removes every key starting with prefix for which match
	// reports true, walking the keyspace once.
	DeleteFunc(ctx context.Context, prefix string, match func(key string) bool) (int, error)
}
