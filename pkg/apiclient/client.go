package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/coachkit/pkg/cache"
	"github.com/dmitrymomot/coachkit/pkg/logger"
	"github.com/dmitrymomot/coachkit/pkg/requestid"
)

// TokenSource supplies bearer tokens. *session.Manager implements it.
type TokenSource interface {
	// Token returns a currently valid token, renewing it if needed.
	Token(ctx context.Context) (string, bool)
	// Refresh renews the token even if the held one looks valid.
	Refresh(ctx context.Context) (string, bool)
}

// Client calls the backend API with credentials attached, retries once after
// a 401 and revalidates GET responses with ETags.
// Zero value is not usable; use New to create instances.
type Client struct {
	baseURL        string
	tokens         TokenSource
	client         *http.Client
	logger         *slog.Logger
	userAgent      string
	cacheCapacity  int
	cache          *cache.LRUCache[string, CacheEntry]
	cacheMu        sync.Mutex
	generation     uint64
	onAuthRequired AuthRequiredFunc
	onResponse     ResponseHook
	now            func() time.Time
}

// New creates a client for the API at baseURL. A nil tokens makes every
// request anonymous.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokens:    tokens,
		client:    http.DefaultClient,
		logger:    logger.Discard(),
		userAgent: "coachkit/1.0",
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.cache = cache.NewLRUCache[string, CacheEntry](c.cacheCapacity)
	return c
}

// ResolveURL returns the full URL for path, which is also the cache key of a
// GET request.
func (c *Client) ResolveURL(path string, opts ...RequestOption) (string, error) {
	return c.resolve(path, newRequestOptions(opts))
}

func (c *Client) resolve(path string, o *requestOptions) (string, error) {
	raw := c.baseURL + path
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if len(o.query) > 0 {
		q := u.Query()
		for k, vs := range o.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Do performs one logical request and decodes the result into out.
//
// The response body has its {"data": ...} envelope removed before decoding;
// an empty body decodes as {}. A nil out discards the body. Non-2xx responses
// return *APIError. A 401 triggers exactly one token renewal and one retry;
// if the retry is still 401 the auth-required callback runs.
//
// GET requests send If-None-Match when the URL is cached, and a 304 answer
// is served from the cache without touching the cached entry.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	o := newRequestOptions(opts)

	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}
	isGet := method == http.MethodGet

	target, err := c.resolve(path, o)
	if err != nil {
		return err
	}

	var payload []byte
	if !isGet && body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%w: %w", ErrEncodeRequest, err)
		}
	}

	var (
		entry      CacheEntry
		cached     bool
		generation uint64
	)
	if isGet {
		generation = c.cacheGeneration()
		entry, cached = c.cache.Get(target)
	}

	ctx, reqID := requestid.Ensure(ctx)
	rc := &call{
		method:  method,
		url:     target,
		payload: payload,
		opts:    o,
		entry:   entry,
		cached:  cached,
		reqID:   reqID,
	}

	token, hasToken := c.token(ctx)
	resp, err := c.send(ctx, rc, token, hasToken, 1)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		discard(resp)
		c.logger.DebugContext(ctx, "unauthorized, renewing token", logger.URL(target), logger.RequestID(reqID))

		token, hasToken = c.tokens.Refresh(ctx)
		if resp, err = c.send(ctx, rc, token, hasToken, 2); err != nil {
			return err
		}
	}

	if resp.StatusCode == http.StatusNotModified && cached {
		discard(resp)
		return decodeInto(entry.Body, out)
	}

	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}

	if !successful(resp.StatusCode) {
		apiErr := newAPIError(resp.StatusCode, raw, reqID)
		if apiErr.IsUnauthorized() && c.onAuthRequired != nil {
			c.onAuthRequired(ctx, apiErr)
		}
		return apiErr
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		return fmt.Errorf("%w: %s %s returned malformed JSON", ErrDecodeResponse, method, target)
	}

	data := unwrap(raw)
	if isGet {
		if etag := resp.Header.Get("ETag"); etag != "" {
			c.storeEntry(generation, target, etag, data)
		}
	}

	return decodeInto(data, out)
}

// call holds what stays constant between the first attempt and the retry.
type call struct {
	method  string
	url     string
	payload []byte
	opts    *requestOptions
	entry   CacheEntry
	cached  bool
	reqID   string
}

func (c *Client) token(ctx context.Context) (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	return c.tokens.Token(ctx)
}

func (c *Client) send(ctx context.Context, cl *call, token string, hasToken bool, attempt int) (*http.Response, error) {
	start := c.now()

	var body io.Reader
	if cl.payload != nil {
		body = bytes.NewReader(cl.payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, cl.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestid.Header, cl.reqID)
	if hasToken {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range cl.opts.headers {
		req.Header[k] = vs
	}
	if cl.cached && req.Header.Get("If-None-Match") == "" {
		req.Header.Set("If-None-Match", cl.entry.ETag)
	}

	resp, err := c.client.Do(req)
	info := ResponseInfo{
		Method:    cl.method,
		URL:       cl.url,
		Attempt:   attempt,
		Duration:  c.now().Sub(start),
		RequestID: cl.reqID,
		Err:       err,
	}
	if resp != nil {
		info.Status = resp.StatusCode
		info.FromCache = resp.StatusCode == http.StatusNotModified && cl.cached
	}
	c.report(ctx, info)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return resp, nil
}

func (c *Client) report(ctx context.Context, info ResponseInfo) {
	attrs := []any{
		logger.Method(info.Method),
		logger.URL(info.URL),
		logger.Attempt(info.Attempt),
		logger.Duration(info.Duration),
		logger.RequestID(info.RequestID),
	}
	if info.Err != nil {
		c.logger.WarnContext(ctx, "request failed", append(attrs, logger.Error(info.Err))...)
	} else {
		c.logger.DebugContext(ctx, "request done", append(attrs, logger.Status(info.Status))...)
	}
	if c.onResponse != nil {
		c.onResponse(info)
	}
}

// unwrap returns the value of a top-level "data" member when it is present
// and not null, otherwise body itself.
func unwrap(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return trimmed
	}
	return env.Data
}

func decodeInto(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(ErrDecodeResponse, err)
	}
	return nil
}

// discard drains and closes a body so the connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func successful(status int) bool {
	return status >= 200 && status < 300
}
