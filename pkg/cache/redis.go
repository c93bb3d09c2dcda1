package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces fetchcache entries inside a shared Redis.
const redisKeyPrefix = "fetch:"

// RedisStore is a Store backed by Redis. Entries are JSON-encoded and
// the Redis key TTL mirrors the entry TTL, so Redis evicts stale
// entries on its own.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{rdb: rdb}
}

// Get returns the entry for key, or ErrCacheMiss when absent or
// expired.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, &StorageError{Op: "get", Err: err}
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, &StorageError{Op: "get", Err: err}
	}

	// Redis evicts on TTL, but check anyway in case of clock drift
	if entry.Expired(time.Now()) {
		if err := s.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
			CacheErrors.WithLabelValues("get").Inc()
		}
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Put stores entry under key. Redis SET is atomic, so concurrent
// readers see either the previous entry or this one.
func (s *RedisStore) Put(ctx context.Context, key string, entry *Entry) error {
	if entry == nil {
		return &StorageError{Op: "put", Err: errors.New("entry cannot be nil")}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return &StorageError{Op: "put", Err: err}
	}

	// TTL zero means keep until Clear; Redis treats 0 the same way
	var expiration time.Duration
	if entry.TTL > 0 {
		expiration = time.Until(entry.StoredAt.Add(entry.TTL))
		if expiration <= 0 {
			// Already stale, nothing to store
			return nil
		}
	}

	if err := s.rdb.Set(ctx, redisKeyPrefix+key, data, expiration).Err(); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return &StorageError{Op: "put", Err: err}
	}

	CachePuts.WithLabelValues("redis").Inc()
	return nil
}

// Clear removes every fetchcache entry, leaving other keys in the
// same Redis untouched.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 500 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				CacheErrors.WithLabelValues("clear").Inc()
				return &StorageError{Op: "clear", Err: err}
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return &StorageError{Op: "clear", Err: err}
	}

	if len(keys) > 0 {
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			CacheErrors.WithLabelValues("clear").Inc()
			return &StorageError{Op: "clear", Err: err}
		}
	}

	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

var _ Store = (*RedisStore)(nil)
