package cache

import (
	"net/http"
	"time"
)

// Entry is a stored HTTP response.
type Entry struct {
	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Header are the response headers
	Header http.Header `json:"header"`

	// Body is the response body
	Body []byte `json:"body"`

	// StoredAt is when the entry was committed to the store
	StoredAt time.Time `json:"stored_at"`

	// TTL is how long the entry stays usable after StoredAt.
	// Zero means the entry never expires (only Clear removes it).
	TTL time.Duration `json:"ttl"`
}

// Expired reports whether the entry's TTL has elapsed at now.
// Entries without a TTL never expire.
func (e *Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.StoredAt.Add(e.TTL))
}

// ExpiresAt returns the instant the entry becomes stale, or the zero
// time when the entry has no TTL.
func (e *Entry) ExpiresAt() time.Time {
	if e.TTL <= 0 {
		return time.Time{}
	}
	return e.StoredAt.Add(e.TTL)
}
