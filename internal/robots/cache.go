// Package robots caches per-host robots.txt policies for the crawl.
package robots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// Mode selects how a host's robots.txt is interpreted.
type Mode string

const (
	// ModePrefix honours every Disallow: line regardless of user-agent group.
	ModePrefix Mode = "prefix"
	// ModeAgent additionally applies the group matching our user agent.
	ModeAgent Mode = "agent"
)

const maxRobotsBytes = 512 << 10

// Policy is the robots policy of one host. Known is false when the
// robots file could not be retrieved; such a policy restricts nothing.
type Policy struct {
	Known    bool
	Prefixes []string
	group    *robotstxt.Group
}

// Match returns the first declared prefix that requestURI starts with.
func (p Policy) Match(requestURI string) (string, bool) {
	for _, prefix := range p.Prefixes {
		if strings.HasPrefix(requestURI, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// Cache holds the Policy for every host we touch. Policies are fetched
// lazily and never refreshed during a run.
type Cache struct {
	mu     sync.RWMutex
	hosts  map[string]Policy
	flight singleflight.Group

	client    *http.Client
	userAgent string
	timeout   time.Duration
	mode      Mode
	logger    *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

func WithClient(client *http.Client) Option {
	return func(c *Cache) {
		c.client = client
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Cache) {
		c.userAgent = ua
	}
}

// WithTimeout bounds a single robots.txt download.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.timeout = d
	}
}

func WithMode(m Mode) Option {
	return func(c *Cache) {
		c.mode = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New returns a ready Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		hosts:     make(map[string]Policy),
		client:    http.DefaultClient,
		userAgent: "crawly/1.0",
		timeout:   5 * time.Second,
		mode:      ModePrefix,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len is the number of hosts with a cached policy.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hosts)
}

// Restricted reports whether u is disallowed for its host, together with
// the prefix that matched.
func (c *Cache) Restricted(ctx context.Context, u *url.URL) (bool, string) {
	p := c.PolicyFor(ctx, u.Scheme, u.Host)
	if !p.Known {
		return false, ""
	}

	requestURI := u.RequestURI()
	if prefix, ok := p.Match(requestURI); ok {
		return true, prefix
	}
	if p.group != nil && !p.group.Test(u.Path) {
		return true, requestURI
	}
	return false, ""
}

// PolicyFor returns the cached policy for host, fetching robots.txt on a
// miss. Concurrent misses for one host share a single download. A failed
// download yields an unknown policy and is not cached.
func (c *Cache) PolicyFor(ctx context.Context, scheme, host string) Policy {
	host = strings.ToLower(host)

	c.mu.RLock()
	p, ok := c.hosts[host]
	c.mu.RUnlock()
	if ok {
		return p
	}

	v, _, _ := c.flight.Do(scheme+"://"+host, func() (any, error) {
		c.mu.RLock()
		p, ok := c.hosts[host]
		c.mu.RUnlock()
		if ok {
			return p, nil
		}

		p, err := c.fetch(ctx, scheme, host)
		if err != nil {
			c.logger.Debug("robots unavailable, allowing host", "host", host, "error", err)
			return Policy{}, nil
		}

		c.mu.Lock()
		c.hosts[host] = p
		c.mu.Unlock()
		return p, nil
	})
	return v.(Policy)
}

func (c *Cache) fetch(ctx context.Context, scheme, host string) (Policy, error) {
	robotsURL := scheme + "://" + host + "/robots.txt"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Policy{}, fmt.Errorf("build robots request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return Policy{}, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Policy{}, fmt.Errorf("robots returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return Policy{}, fmt.Errorf("read robots.txt: %w", err)
	}

	p := Policy{
		Known:    true,
		Prefixes: ParseDisallow(strings.NewReader(string(body))),
	}
	if c.mode == ModeAgent {
		data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
		if err != nil {
			return Policy{}, fmt.Errorf("parse robots.txt: %w", err)
		}
		p.group = data.FindGroup(c.userAgent)
	}
	return p, nil
}
