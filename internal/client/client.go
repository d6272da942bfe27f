package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second
)

// Resource lifetimes in the cache.
const (
	TTLShops    = 60 * time.Second
	TTLShop     = 60 * time.Second
	TTLProducts = 30 * time.Second
	TTLProduct  = 60 * time.Second
	TTLOrders   = 15 * time.Second
)

// Cache key families, also used as invalidation patterns.
const (
	FamilyShops    = "shops:"
	FamilyProducts = "products:"
	FamilyOrders   = "orders:"
)

// TokenStore keeps the bearer token between runs. An empty token means signed out.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// MemTokens is a TokenStore that lives only as long as the process.
type MemTokens struct {
	mu  sync.Mutex
	tok string
}

func (m *MemTokens) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok, nil
}

func (m *MemTokens) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = token
	return nil
}

func (m *MemTokens) ClearToken() error { return m.SetToken("") }

type options struct {
	http          *http.Client
	log           *zap.Logger
	now           func() time.Time
	maxConcurrent int
	cacheSize     int
}

type Option func(*options)

func WithHTTPClient(hc *http.Client) Option { return func(o *options) { o.http = hc } }

func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

// WithClock replaces the cache clock.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func WithMaxConcurrent(n int) Option { return func(o *options) { o.maxConcurrent = n } }

func WithCacheSize(n int) Option { return func(o *options) { o.cacheSize = n } }

// Client talks to the gateway. Reads are cached, de-duplicated and throttled;
// writes are throttled and invalidate the cache families they touch.
// A Client is safe for concurrent use.
type Client struct {
	base     string
	http     *http.Client
	tokens   TokenStore
	cache    *Cache
	inflight *InFlight
	queue    *Queue
	log      *zap.Logger
}

func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	o := options{maxConcurrent: MaxConcurrent}
	for _, opt := range opts {
		opt(&o)
	}
	if o.http == nil {
		o.http = &http.Client{Timeout: DefaultTimeout}
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if tokens == nil {
		tokens = &MemTokens{}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     o.http,
		tokens:   tokens,
		cache:    NewCache(o.cacheSize, o.now),
		inflight: &InFlight{},
		queue:    NewQueue(o.maxConcurrent),
		log:      o.log,
	}
}

func (c *Client) BaseURL() string { return c.base }

func (c *Client) Cache() *Cache { return c.cache }

// Invalidate drops cached reads whose key contains pattern. Empty pattern clears everything.
// Reads already in flight for those keys are detached and their results are not cached.
func (c *Client) Invalidate(pattern string) {
	detached := c.inflight.Forget(pattern)
	n := c.cache.Invalidate(pattern)
	c.log.Debug("cache invalidated",
		zap.String("pattern", pattern),
		zap.Int("removed", n),
		zap.Int("detached", detached))
}

func (c *Client) SignedIn() bool {
	tok, err := c.tokens.Token()
	return err == nil && tok != ""
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// raw bodies bypass JSON encoding, e.g. multipart uploads.
	raw         []byte
	contentType string

	auth bool
}

func (r request) String() string { return r.method + " " + r.path }

func (c *Client) token(auth bool) (string, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		c.log.Warn("read token failed", zap.Error(err))
		tok = ""
	}
	if auth && tok == "" {
		return "", ErrAuthRequired
	}
	return tok, nil
}

// read serves key from the cache or performs req once for all concurrent callers.
func (c *Client) read(ctx context.Context, key string, ttl time.Duration, req request) ([]byte, error) {
	return c.cached(ctx, key, ttl, req.auth, func(ctx context.Context) ([]byte, error) {
		return c.exchange(ctx, req)
	})
}

// cached is read with a custom fetch. fetch runs inside a queue slot and its
// result is stored under key on success.
func (c *Client) cached(ctx context.Context, key string, ttl time.Duration, auth bool, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if _, err := c.token(auth); err != nil {
		return nil, err
	}

	if b, ok := c.cache.Get(key); ok {
		c.log.Debug("cache hit", zap.String("key", key))
		return b, nil
	}

	return c.inflight.Join(ctx, key, func(ctx context.Context) ([]byte, error) {
		gen := c.cache.Generation()
		var out []byte
		err := c.queue.Do(ctx, func(ctx context.Context) error {
			b, err := fetch(ctx)
			out = b
			return err
		})
		if err != nil {
			return nil, err
		}
		if !c.cache.SetSince(gen, key, out, ttl) {
			c.log.Debug("stale read not cached", zap.String("key", key))
		}
		return out, nil
	})
}

// write performs req through the queue and drops the given cache families on success.
func (c *Client) write(ctx context.Context, req request, families ...string) ([]byte, error) {
	if _, err := c.token(req.auth); err != nil {
		return nil, err
	}

	var out []byte
	err := c.queue.Do(ctx, func(ctx context.Context) error {
		b, err := c.exchange(ctx, req)
		out = b
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, f := range families {
		c.Invalidate(f)
	}
	return out, nil
}

// uncached performs a read without caching or sharing it.
func (c *Client) uncached(ctx context.Context, req request) ([]byte, error) {
	return c.write(ctx, req)
}

func (c *Client) exchange(ctx context.Context, req request) ([]byte, error) {
	tok, err := c.token(req.auth)
	if err != nil {
		return nil, err
	}

	var (
		body        io.Reader
		contentType = "application/json"
	)
	switch {
	case req.raw != nil:
		body = bytes.NewReader(req.raw)
		contentType = req.contentType
	case req.body != nil:
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", req, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.base + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, err
	}
	hr.Header.Set("Content-Type", contentType)
	hr.Header.Set("Accept", "application/json")
	if tok != "" {
		hr.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(hr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		c.log.Warn("request failed", zap.String("request", req.String()), zap.Error(err))
		return nil, &ConnectionError{Endpoint: c.base, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		return nil, &ConnectionError{Endpoint: c.base, Err: err}
	}

	c.log.Debug("request done",
		zap.String("request", req.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	return nil, responseError(resp.StatusCode, raw)
}

type errorBody struct {
	Message string       `json:"message"`
	Error   string       `json:"error"`
	Errors  []FieldError `json:"errors"`
}

func responseError(status int, raw []byte) error {
	var eb errorBody
	parsed := json.Unmarshal(raw, &eb) == nil

	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}
	if msg == "" && len(eb.Errors) > 0 {
		msg = eb.Errors[0].Message
	}

	if status >= 400 && status < 500 && parsed && msg != "" {
		return &ValidationError{Status: status, Message: msg, Fields: eb.Errors}
	}
	if msg == "" || status < 500 {
		msg = fallbackMessage
	}
	return &ServerError{Status: status, Message: msg}
}

func decode[T any](b []byte, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, &ServerError{Status: http.StatusOK, Message: "malformed response: " + err.Error()}
	}
	return out, nil
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var (
		ve *ValidationError
		se *ServerError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Status == status
	case errors.As(err, &se):
		return se.Status == status
	}
	return false
}
