package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrCacheMiss indicates the requested key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// StorageError wraps a backend failure so callers can distinguish a
// broken store from an empty one. A failed Put must never look like a
// successful commit.
type StorageError struct {
	// Op is the store operation that failed ("get", "put", "clear")
	Op string

	// Err is the underlying backend error
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store is a durable mapping from cache key to stored response.
//
// Implementations must be safe for concurrent use. Put replaces any
// existing entry for the key atomically with respect to concurrent
// Gets: a reader observes either the old entry or the new one, never
// a half-written entry.
type Store interface {
	// Get returns the entry for key. It returns ErrCacheMiss when no
	// entry exists or the entry's TTL has elapsed, and a *StorageError
	// for backend failures.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores entry under key, replacing any previous entry.
	Put(ctx context.Context, key string, entry *Entry) error

	// Clear removes all entries. In-flight fetches are unaffected and
	// will still commit after Clear returns.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
