// Package client provides the caching HTTP fetch layer: a Client that
// serves repeated fetches for the same resource from durable storage
// and coalesces concurrent fetches for the same key into a single
// network operation.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/graypools/fetchcache/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client is the public facade: Fetch and Clear.
type Client struct {
	coordinator *Coordinator
	store       cache.Store
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Store is the durable response store (required).
	Store cache.Store

	// Transport performs network fetches. Nil selects an HTTPTransport
	// built from Timeout and UserAgent.
	Transport Transport

	// UserAgent identifies this client to upstream servers (required,
	// background fetchers should be attributable).
	UserAgent string

	// Timeout bounds a single network attempt, including connection
	// setup and body read. Zero means no limit.
	Timeout time.Duration

	// FetchTimeout bounds the whole leader fetch path; when it fires,
	// every waiter receives the same timeout error. Zero means no limit.
	FetchTimeout time.Duration

	// DefaultTTL applies to committed entries when a Fetch carries no
	// per-call TTL. Zero keeps entries until Clear, matching the
	// "cache never expires except on clear" behavior.
	DefaultTTL time.Duration

	// MaxRetries enables the retrying transport for transient upstream
	// failures. Zero disables retries entirely.
	MaxRetries int

	// InitialBackoff is the first retry delay when retries are enabled.
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(store cache.Store, userAgent string) Config {
	return Config{
		Store:          store,
		UserAgent:      userAgent,
		Timeout:        30 * time.Second,
		FetchTimeout:   2 * time.Minute,
		DefaultTTL:     0, // keep until Clear
		MaxRetries:     0, // retries are opt-in
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a caching fetch client.
func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	logger := log.With().Str("component", "fetchcache").Logger()

	transport := cfg.Transport
	if transport == nil {
		transport = NewHTTPTransport(cfg.Timeout, cfg.UserAgent)
	}
	if cfg.MaxRetries > 0 {
		retryCfg := DefaultRetryConfig()
		retryCfg.MaxAttempts = cfg.MaxRetries + 1
		if cfg.InitialBackoff > 0 {
			retryCfg.InitialBackoff = cfg.InitialBackoff
		}
		transport = NewRetryTransport(transport, retryCfg, logger)
	}

	coordinator := NewCoordinator(cfg.Store, transport, cfg.DefaultTTL, cfg.FetchTimeout, logger)

	return &Client{
		coordinator: coordinator,
		store:       cfg.Store,
		logger:      logger,
	}, nil
}

// Fetch returns the response for req, served from the store when a
// live entry exists (Fresh=false) and fetched from the network
// otherwise (Fresh=true). Concurrent Fetch calls for the same key
// share a single network operation.
func (c *Client) Fetch(ctx context.Context, req *Request, opts Options) (*FetchResult, error) {
	return c.coordinator.Fetch(ctx, req, opts)
}

// Get fetches url with default options.
func (c *Client) Get(ctx context.Context, url string) (*FetchResult, error) {
	return c.coordinator.Fetch(ctx, NewRequest(url), Options{})
}

// Clear removes every stored entry. Fetches in flight at the time of
// the call are unaffected and still commit their results afterwards:
// Clear is a point-in-time invalidation, not a barrier.
func (c *Client) Clear(ctx context.Context) error {
	c.logger.Info().Msg("clearing cache")
	return c.store.Clear(ctx)
}

// InFlight reports how many fetches are currently executing.
func (c *Client) InFlight() int {
	return c.coordinator.InFlight()
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}
