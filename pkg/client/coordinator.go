package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/graypools/fetchcache/pkg/archive"
	"github.com/graypools/fetchcache/pkg/cache"
	"github.com/rs/zerolog"
)

// Options adjust a single Fetch call.
type Options struct {
	// TTL is the cache lifetime of the committed entry. Zero falls back
	// to the client default; entries without a TTL live until Clear.
	TTL time.Duration

	// BypassCache skips the store lookup and always reaches the
	// network. The result is still committed and still coalesces with
	// other in-flight fetches for the same key.
	BypassCache bool

	// NoStore fetches without committing the result.
	NoStore bool

	// Extract decompresses the fetched body (zip or gzip) before it is
	// returned and cached.
	Extract bool

	// ExtractTarget optionally names the zip member to pull out.
	ExtractTarget string

	// Delay pauses the fetching caller after a successful network
	// fetch, as politeness toward the upstream server. Waiters that
	// joined the fetch are released before the pause.
	Delay time.Duration
}

// FetchResult is the value returned to a caller.
type FetchResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Fresh is true when the result came from a network fetch
	// performed during this call (or the in-flight fetch this call
	// joined), false when it was served from the store.
	Fresh bool
}

// Coordinator runs the cache-check, dedup, fetch, commit sequence.
// For any cache key at most one network operation is in flight at a
// time; concurrent callers for the same key share its outcome.
type Coordinator struct {
	store        cache.Store
	transport    Transport
	inflight     *inFlightRegistry
	defaultTTL   time.Duration
	fetchTimeout time.Duration
	logger       zerolog.Logger
}

// NewCoordinator creates a fetch coordinator.
func NewCoordinator(store cache.Store, transport Transport, defaultTTL, fetchTimeout time.Duration, logger zerolog.Logger) *Coordinator {
	if store == nil {
		panic("store cannot be nil")
	}
	if transport == nil {
		panic("transport cannot be nil")
	}
	return &Coordinator{
		store:        store,
		transport:    transport,
		inflight:     newInFlightRegistry(),
		defaultTTL:   defaultTTL,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Fetch returns the response for req, from the store when a live entry
// exists and from the network otherwise. Concurrent calls for the same
// key share one network operation and receive identical outcomes, in
// the order they arrived.
func (c *Coordinator) Fetch(ctx context.Context, req *Request, opts Options) (*FetchResult, error) {
	key := cache.Key{Method: req.Method, URL: req.URL, Body: req.Body}.String()

	if !opts.BypassCache {
		entry, err := c.store.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("key", key).Msg("cache hit")
			return &FetchResult{
				StatusCode: entry.StatusCode,
				Header:     entry.Header,
				Body:       entry.Body,
				Fresh:      false,
			}, nil
		case errors.Is(err, cache.ErrCacheMiss):
			// fall through to the network
		default:
			// A broken store is not a miss; surface it to this caller only
			return nil, err
		}
	}

	leader, join := c.inflight.begin(key)
	if !leader {
		inflightJoinsTotal.Inc()
		c.logger.Debug().Str("key", key).Msg("joining in-flight fetch")

		select {
		case out := <-join:
			if out.err != nil {
				return nil, out.err
			}
			result := *out.result
			return &result, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Leader path. The registry record must be completed on every exit,
	// including panics, or waiters would hang forever.
	completed := false
	defer func() {
		if !completed {
			c.inflight.complete(key, outcome{err: ErrFetchAborted})
		}
	}()

	result, err := c.lead(ctx, key, req, opts)
	completed = true
	c.inflight.complete(key, outcome{result: result, err: err})

	if err != nil {
		return nil, err
	}

	if opts.Delay > 0 {
		// Waiters already hold the result; only this caller pauses.
		select {
		case <-time.After(opts.Delay):
		case <-ctx.Done():
		}
	}

	out := *result
	return &out, nil
}

// lead performs the network fetch and, on success, commits the entry.
func (c *Coordinator) lead(ctx context.Context, key string, req *Request, opts Options) (*FetchResult, error) {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.transport.Send(ctx, req)
	requestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		c.logger.Error().Err(err).Str("url", req.URL).Msg("fetch failed")
		return nil, err
	}

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn().
			Str("url", req.URL).
			Int("status", resp.StatusCode).
			Msg("upstream returned error status")
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL}
	}

	body := resp.Body
	if opts.Extract {
		body, err = archive.Extract(body, opts.ExtractTarget)
		if err != nil {
			return nil, fmt.Errorf("extract response body: %w", err)
		}
	}

	// Redirect captures are point-in-time answers, not resource state
	noStore := opts.NoStore || (req.NoFollow && isRedirect(resp.StatusCode))

	if !noStore {
		ttl := opts.TTL
		if ttl == 0 {
			ttl = c.defaultTTL
		}
		entry := &cache.Entry{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
			StoredAt:   time.Now(),
			TTL:        ttl,
		}
		if err := c.store.Put(ctx, key, entry); err != nil {
			// The fetch itself succeeded; losing durability only costs a
			// refetch next time, since no entry was written.
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to cache response")
		} else {
			c.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("cached response")
		}
	}

	return &FetchResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Fresh:      true,
	}, nil
}

// InFlight reports how many fetches are currently executing.
func (c *Coordinator) InFlight() int {
	return c.inflight.inFlight()
}
