package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Key identifies a cached response. Two requests that may share a
// cached result produce the same Key string; requests that must not
// share one differ in at least one field.
type Key struct {
	// Method is the HTTP method ("" is treated as GET)
	Method string

	// URL is the request URL; it is normalized before use
	URL string

	// Body is the request body, if any. Only its digest enters the key.
	Body []byte
}

// String generates a deterministic cache key string.
// Format: fetch:METHOD:normalized-url[:bodydigest]
//
// Example:
//
//	fetch:GET:http://example.com/data?page=1&sort=asc
//
// Normalization lowercases scheme and host, drops default ports and
// fragments, and sorts query parameters, so that cosmetically
// different spellings of the same resource map to the same entry. The
// path is kept as given: /a and /a/ are distinct resources and must
// not share an entry. Derivation is total: an unparseable URL is used
// verbatim rather than rejected.
func (k Key) String() string {
	method := strings.ToUpper(strings.TrimSpace(k.Method))
	if method == "" {
		method = "GET"
	}

	parts := []string{"fetch", method, normalizeURL(k.URL)}

	if len(k.Body) > 0 {
		sum := sha256.Sum256(k.Body)
		parts = append(parts, hex.EncodeToString(sum[:8]))
	}

	return strings.Join(parts, ":")
}

// normalizeURL canonicalizes raw so semantically identical URLs
// compare equal. Unparseable input is returned trimmed but otherwise
// untouched.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Drop redundant default ports
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	// url.Values.Encode sorts parameters by key
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}

	u.Fragment = ""

	return u.String()
}
