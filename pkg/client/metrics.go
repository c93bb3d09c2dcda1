package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for fetch operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetchcache_requests_total",
		Help: "Total network fetches by outcome status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetchcache_request_duration_seconds",
		Help:    "Network fetch duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	inflightJoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetchcache_inflight_joins_total",
		Help: "Total fetch calls that joined an already in-flight fetch",
	})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetchcache_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fetchcache_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetchcache_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})
)
