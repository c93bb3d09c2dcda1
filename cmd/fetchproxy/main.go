// Command fetchproxy exposes the caching fetch client over HTTP, so
// scrapers in any language can share one response cache.
//
//	GET    /fetch?url=...&ttl=5m&bypass=1   fetch through the cache
//	DELETE /cache                           clear the cache
//	GET    /healthz                         liveness probe
//	GET    /metrics                         Prometheus metrics
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/graypools/fetchcache/pkg/cache"
	"github.com/graypools/fetchcache/pkg/client"
	"github.com/graypools/fetchcache/pkg/logging"
)

func main() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") != "",
		Output: os.Stderr,
	})
	logger := logging.NewLogger("fetchproxy")

	port := getEnv("PORT", "8080")
	userAgent := getEnv("USER_AGENT", "fetchproxy/0.1.0")

	store, err := openStore()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open cache store")
	}

	fc, err := client.New(client.DefaultConfig(store, userAgent))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create fetch client")
	}
	defer fc.Close()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/fetch", fetchHandler(fc))
	r.Delete("/cache", clearHandler(fc))

	addr := ":" + port
	logger.Info().Str("addr", addr).Str("user_agent", userAgent).Msg("starting fetchproxy")

	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// openStore selects Redis when REDIS_URL is set, sqlite otherwise.
func openStore() (cache.Store, error) {
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}
		return cache.NewRedisStore(rdb), nil
	}
	return cache.NewSQLiteStore(getEnv("CACHE_PATH", "cache.db"))
}

// skippedHeaders are not forwarded from stored responses: hop-by-hop
// headers belong to the original connection, and Content-Length is
// recomputed for the body this server actually writes.
var skippedHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
	"Content-Length":      {},
}

func fetchHandler(fc *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("url")
		if target == "" {
			http.Error(w, "missing url parameter", http.StatusBadRequest)
			return
		}

		var opts client.Options
		if ttlStr := r.URL.Query().Get("ttl"); ttlStr != "" {
			ttl, err := time.ParseDuration(ttlStr)
			if err != nil {
				http.Error(w, "invalid ttl parameter", http.StatusBadRequest)
				return
			}
			opts.TTL = ttl
		}
		if bypass, _ := strconv.ParseBool(r.URL.Query().Get("bypass")); bypass {
			opts.BypassCache = true
		}

		res, err := fc.Fetch(r.Context(), client.NewRequest(target), opts)
		if err != nil {
			http.Error(w, "fetch failed: "+err.Error(), http.StatusBadGateway)
			return
		}

		for key, values := range res.Header {
			if _, skip := skippedHeaders[http.CanonicalHeaderKey(key)]; skip {
				continue
			}
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.Header().Set("X-Fetchcache-Fresh", strconv.FormatBool(res.Fresh))
		w.WriteHeader(res.StatusCode)
		w.Write(res.Body)
	}
}

func clearHandler(fc *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fc.Clear(r.Context()); err != nil {
			http.Error(w, "clear failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
