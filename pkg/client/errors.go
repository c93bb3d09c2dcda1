package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled
	// while waiting to retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrFetchAborted is delivered to waiters when a leader terminates
	// without producing an outcome. Every waiter always receives
	// exactly one outcome; this is the outcome of last resort.
	ErrFetchAborted = errors.New("in-flight fetch aborted before completion")
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents connection-level failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout represents deadline and timeout failures.
	ErrorClassTimeout ErrorClass = "timeout"
)

// TransportError represents a network-level failure while talking to
// the upstream server. The cache is left untouched when one occurs.
type TransportError struct {
	// Reason names the failed step ("build request", "send", "read body")
	Reason string

	// Timeout marks deadline or timeout failures
	Timeout bool

	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport timeout (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Reason, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Class returns the error class for retry and metrics decisions.
func (e *TransportError) Class() ErrorClass {
	if e.Timeout {
		return ErrorClassTimeout
	}
	return ErrorClassNetwork
}

// HTTPError represents an upstream error status. Error responses are
// never committed to the cache, so the next fetch for the same key
// retries the network instead of replaying a cached failure.
type HTTPError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream %s error (status %d) fetching %s",
		e.Class(), e.StatusCode, e.URL)
}

// Class returns the error class for retry and metrics decisions.
func (e *HTTPError) Class() ErrorClass {
	if e.StatusCode >= http.StatusInternalServerError {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// classify categorizes an error for retry decisions and metrics.
func classify(err error) ErrorClass {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Class()
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Class()
	}
	return ErrorClassNetwork
}

// shouldRetry determines if an error class is worth retrying.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassClient:
		// 4xx will not get better on its own
		return false
	case ErrorClassServer, ErrorClassNetwork, ErrorClassTimeout:
		return true
	default:
		return false
	}
}
