package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/coachkit/pkg/logger"
)

// ResponseInfo describes one network call made by Do.
type ResponseInfo struct {
	Method    string
	URL       string
	Status    int
	Attempt   int
	Duration  time.Duration
	FromCache bool
	RequestID string
	Err       error
}

// ResponseHook is called after each network call.
type ResponseHook func(info ResponseInfo)

// AuthRequiredFunc is called when a request is still unauthorized after the
// token was renewed.
type AuthRequiredFunc func(ctx context.Context, err *APIError)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for every request. Use the same
// client as the session manager so cookies are shared.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.With(logger.Component("apiclient"))
		}
	}
}

// WithCacheCapacity bounds the ETag cache to n URLs. Zero or less keeps it
// unbounded.
func WithCacheCapacity(n int) Option {
	return func(c *Client) {
		c.cacheCapacity = n
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithOnAuthRequired(fn AuthRequiredFunc) Option {
	return func(c *Client) {
		c.onAuthRequired = fn
	}
}

func WithOnResponse(hook ResponseHook) Option {
	return func(c *Client) {
		c.onResponse = hook
	}
}

// WithClock overrides time.Now for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// requestOptions contains per-call settings
type requestOptions struct {
	headers http.Header
	query   url.Values
}

// RequestOption configures a single Do call.
type RequestOption func(*requestOptions)

// WithHeader sets a request header. A caller supplied If-None-Match takes
// precedence over the cached ETag.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if key != "" && value != "" {
			o.headers.Set(key, value)
		}
	}
}

// WithQuery appends query parameters to the path.
func WithQuery(values url.Values) RequestOption {
	return func(o *requestOptions) {
		for k, vs := range values {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

func newRequestOptions(opts []RequestOption) *requestOptions {
	o := &requestOptions{headers: http.Header{}, query: url.Values{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
