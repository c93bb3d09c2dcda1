package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// Request describes a resource to fetch.
type Request struct {
	// Method is the HTTP method ("" is treated as GET)
	Method string

	// URL is the resource to fetch
	URL string

	// Header carries extra request headers
	Header http.Header

	// Body is the request body, if any
	Body []byte

	// NoFollow stops at the first redirect. The redirect target from
	// the Location header becomes the response body, so callers can
	// discover where a resource moved without fetching it.
	NoFollow bool
}

// NewRequest builds a GET request for url.
func NewRequest(url string) *Request {
	return &Request{Method: http.MethodGet, URL: url}
}

// Response is what a Transport produced for a single request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs the actual network operation for a fetch. It owns
// connection handling and redirect policy; the coordinator above it
// owns caching and deduplication. Implementations must be safe for
// concurrent use.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the standard Transport over net/http.
type HTTPTransport struct {
	client    *http.Client
	noFollow  *http.Client
	userAgent string
}

// NewHTTPTransport creates a Transport with the given per-request
// timeout and User-Agent.
func NewHTTPTransport(timeout time.Duration, userAgent string) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout: timeout,
		},
		noFollow: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: userAgent,
	}
}

// Send executes the request and reads the full response body.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &TransportError{Reason: "build request", Err: err}
	}

	for name, values := range req.Header {
		httpReq.Header[name] = values
	}
	if httpReq.Header.Get("User-Agent") == "" && t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	hc := t.client
	if req.NoFollow {
		hc = t.noFollow
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Reason: "send", Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if req.NoFollow && isRedirect(resp.StatusCode) {
		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header.Clone(),
			Body:       []byte(resp.Header.Get("Location")),
		}, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Reason: "read body", Timeout: isTimeout(err), Err: err}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400 && status != http.StatusNotModified
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

var _ Transport = (*HTTPTransport)(nil)
