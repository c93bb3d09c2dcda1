package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for the retrying transport.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryTransport decorates another Transport with exponential-backoff
// retries for server, network, and timeout failures. Client errors
// (4xx) pass through untouched. Retry policy lives here, at the
// transport boundary, never in the fetch coordinator.
type RetryTransport struct {
	next   Transport
	config RetryConfig
	logger zerolog.Logger
}

// NewRetryTransport wraps next with retry behavior.
func NewRetryTransport(next Transport, config RetryConfig, logger zerolog.Logger) *RetryTransport {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	return &RetryTransport{next: next, config: config, logger: logger}
}

// Send executes the request, retrying retriable failures with jittered
// exponential backoff. A 5xx response on the final attempt is returned
// as a response rather than an error, so the caller decides how to
// treat the status.
func (t *RetryTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	backoff := t.config.InitialBackoff

	var lastErr error
	var lastResp *Response

	for attempt := 1; attempt <= t.config.MaxAttempts; attempt++ {
		resp, err := t.next.Send(ctx, req)

		var class ErrorClass
		switch {
		case err == nil && resp.StatusCode < 500:
			if attempt > 1 {
				t.logger.Info().
					Str("url", req.URL).
					Int("attempt", attempt).
					Msg("request succeeded after retry")
			}
			return resp, nil
		case err == nil:
			// 5xx: retriable, but keep the response in case retries run out
			lastResp, lastErr = resp, nil
			class = ErrorClassServer
		default:
			class = classify(err)
			if !shouldRetry(class) {
				return nil, err
			}
			lastResp, lastErr = nil, err
		}

		if attempt >= t.config.MaxAttempts {
			break
		}

		retriesTotal.WithLabelValues(string(class)).Inc()

		// ±20% jitter so coordinated clients spread out
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		retryBackoffSeconds.WithLabelValues(string(class)).Observe(jitter.Seconds())

		t.logger.Debug().
			Str("url", req.URL).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("retrying request after backoff")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * t.config.BackoffMultiplier)
		if backoff > t.config.MaxBackoff {
			backoff = t.config.MaxBackoff
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}

	retryExhaustedTotal.Inc()
	t.logger.Warn().
		Str("url", req.URL).
		Int("max_attempts", t.config.MaxAttempts).
		Msg("retry attempts exhausted")

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, t.config.MaxAttempts, lastErr)
}

var _ Transport = (*RetryTransport)(nil)
