// Package channels tracks which browser version is on each release channel.
package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Channel describes one release channel.
type Channel struct {
	Version    int    `json:"version"`
	StableDate string `json:"stable_date,omitempty"`
}

// Channels maps channel names ("stable", "beta", "dev", "canary") to their
// current release.
type Channels map[string]Channel

const (
	currentKey   = "channels"
	lastKnownKey = "channels:last-known"
)

// JSON responses of some dashboards start with an anti-XSSI prefix.
var xssiPrefix = []byte(")]}'")

var ErrNoStable = errors.New("channel info has no stable version")

// Client fetches channel info over HTTP and caches it.
type Client struct {
	url      string
	http     *fasthttp.Client
	cache    *cache.Cache
	ttl      time.Duration
	timeout  time.Duration
	fallback int
	log      *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default fasthttp client.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTTL sets how long fetched channel info is served from cache.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithFallback sets the stable version reported when nothing could ever be
// fetched.
func WithFallback(milestone int) Option {
	return func(c *Client) { c.fallback = milestone }
}

func NewClient(url string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		url:     url,
		http:    &fasthttp.Client{Name: "releasedash"},
		ttl:     30 * time.Minute,
		timeout: 5 * time.Second,
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.cache = cache.New(c.ttl, 2*c.ttl)
	return c
}

// Refresh fetches channel info and stores it in the cache.
func (c *Client) Refresh(ctx context.Context) error {
	_, err := c.fetch(ctx)
	return err
}

func (c *Client) fetch(ctx context.Context) (Channels, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("fetch channels: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch channels: unexpected status %d", resp.StatusCode())
	}

	body := bytes.TrimSpace(resp.Body())
	body = bytes.TrimPrefix(body, xssiPrefix)

	var ch Channels
	if err := json.Unmarshal(body, &ch); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}
	if ch["stable"].Version <= 0 {
		return nil, ErrNoStable
	}

	c.cache.Set(currentKey, ch, cache.DefaultExpiration)
	c.cache.Set(lastKnownKey, ch, cache.NoExpiration)
	return ch, nil
}

// Channels returns the cached channel info, fetching it when the cache is
// cold. If the fetch fails the last successfully fetched value is returned.
func (c *Client) Channels(ctx context.Context) (Channels, error) {
	if v, ok := c.cache.Get(currentKey); ok {
		return v.(Channels), nil
	}
	ch, err := c.fetch(ctx)
	if err == nil {
		return ch, nil
	}
	if v, ok := c.cache.Get(lastKnownKey); ok {
		c.log.Warn("serving stale channel info", zap.Error(err))
		return v.(Channels), nil
	}
	if c.fallback > 0 {
		c.log.Warn("channel info unavailable, using configured default milestone",
			zap.Int("milestone", c.fallback), zap.Error(err))
		return Channels{"stable": {Version: c.fallback}}, nil
	}
	return nil, err
}

// StableVersion returns the version on the stable channel.
func (c *Client) StableVersion(ctx context.Context) (int, error) {
	ch, err := c.Channels(ctx)
	if err != nil {
		return 0, err
	}
	v := ch["stable"].Version
	if v <= 0 {
		return 0, ErrNoStable
	}
	return v, nil
}
