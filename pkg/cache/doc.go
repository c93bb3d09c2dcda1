// Package cache provides durable storage for fetched HTTP responses.
//
// Responses are stored as whole entries keyed by a deterministic
// fingerprint of the request (method, normalized URL, body digest).
// Entries are never mutated in place: a new fetch replaces the entire
// entry, and an entry disappears only through TTL expiry or Clear.
//
// Two backends are provided:
//
//   - SQLiteStore keeps entries in a single-file sqlite database. This
//     is the default backend and needs no external services.
//   - RedisStore keeps JSON-encoded entries in Redis under the "fetch:"
//     prefix, with the Redis TTL mirroring the entry TTL.
//
// # Basic Usage
//
//	store, err := cache.NewSQLiteStore("cache.db")
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	key := cache.Key{Method: "GET", URL: "http://example.com/data.csv"}
//
//	entry, err := store.Get(ctx, key.String())
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the network and Put the result
//	}
//
// # Errors
//
// Get returns ErrCacheMiss for absent or expired keys. Every other
// failure from a backend is wrapped in *StorageError so callers can
// tell a broken store apart from an empty one.
//
// # Metrics
//
// The backends export Prometheus metrics:
//
//   - fetchcache_cache_hits_total{backend} - cache hits
//   - fetchcache_cache_misses_total - cache misses
//   - fetchcache_cache_puts_total{backend} - committed entries
//   - fetchcache_cache_errors_total{operation} - backend errors
package cache
