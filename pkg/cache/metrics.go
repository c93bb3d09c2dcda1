package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by backend (sqlite, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchcache_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses tracks cache misses (absent or expired entries)
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetchcache_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// CachePuts tracks committed entries by backend
	CachePuts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchcache_cache_puts_total",
			Help: "Total number of entries committed to the cache",
		},
		[]string{"backend"},
	)

	// CacheErrors tracks store operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetchcache_cache_errors_total",
			Help: "Total number of cache store operation errors",
		},
		[]string{"operation"}, // "get", "put", "clear"
	)
)
