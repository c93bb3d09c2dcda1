// Package metrics provides the centralized Prometheus registry
// reference for fetchcache. Metrics are defined in the packages that
// own them (client, cache) to maintain modularity; this package
// documents what is available.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by fetchcache.
// All metrics register automatically via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - fetchcache_cache_hits_total{backend} (Counter): cache hits by backend (sqlite, redis)
//   - fetchcache_cache_misses_total (Counter): cache misses (absent or expired)
//   - fetchcache_cache_puts_total{backend} (Counter): entries committed
//   - fetchcache_cache_errors_total{operation} (Counter): store errors by operation
//
// Fetch Metrics (pkg/client):
//   - fetchcache_requests_total{status} (Counter): network fetches by HTTP status or "error"
//   - fetchcache_request_duration_seconds (Histogram): network fetch duration
//   - fetchcache_inflight_joins_total (Counter): calls that joined an in-flight fetch
//
// Retry Metrics (pkg/client):
//   - fetchcache_retries_total{error_class} (Counter): retry attempts by error class
//   - fetchcache_retry_backoff_seconds{error_class} (Histogram): backoff durations
//   - fetchcache_retry_exhausted_total (Counter): fetches that exhausted retries
//
// Example Prometheus Queries:
//
//   # Cache hit rate
//   sum(rate(fetchcache_cache_hits_total[5m])) /
//   (sum(rate(fetchcache_cache_hits_total[5m])) + sum(rate(fetchcache_cache_misses_total[5m])))
//
//   # Dedup effectiveness
//   rate(fetchcache_inflight_joins_total[5m]) / rate(fetchcache_requests_total[5m])
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(fetchcache_request_duration_seconds_bucket[5m]))
