package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// DefaultRobotsTTL is how long a host's robots.txt is trusted before refetching
const DefaultRobotsTTL = time.Hour

// ProxyFunc selects a proxy for a request, as http.Transport.Proxy does
type ProxyFunc func(*http.Request) (*url.URL, error)

type robotsEntry struct {
	data    *robotstxt.RobotsData
	fetched time.Time
}

// RobotsChecker answers whether a media URL may be downloaded. Results are
// cached per scheme and host for ttl.
type RobotsChecker struct {
	mu        sync.RWMutex
	entries   map[string]robotsEntry
	client    *http.Client
	userAgent string
	ttl       time.Duration
	now       func() time.Time
}

// NewRobotsChecker creates a checker for userAgent. A nil proxy connects directly.
func NewRobotsChecker(userAgent string, timeout time.Duration, proxy ProxyFunc) *RobotsChecker {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = proxy
	}
	return &RobotsChecker{
		entries:   make(map[string]robotsEntry),
		client:    &http.Client{Timeout: timeout, Transport: transport},
		userAgent: userAgent,
		ttl:       DefaultRobotsTTL,
		now:       time.Now,
	}
}

// CanFetch reports whether rawURL is allowed and the crawl delay to honor.
// An unreachable robots.txt allows the fetch.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if u.Host == "" {
		return false, 0, fmt.Errorf("parse URL: missing host in %q", rawURL)
	}

	data, err := r.lookup(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return true, 0, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	var delay time.Duration
	if group := data.FindGroup(r.userAgent); group != nil {
		delay = group.CrawlDelay
	}
	return data.TestAgent(path, r.userAgent), delay, nil
}

// IsAllowed is CanFetch without the crawl delay
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	allowed, _, _ := r.CanFetch(ctx, rawURL)
	return allowed
}

// Clear drops every cached robots.txt
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	r.entries = make(map[string]robotsEntry)
	r.mu.Unlock()
}

func (r *RobotsChecker) lookup(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	entry, ok := r.entries[origin]
	r.mu.RUnlock()
	if ok && r.now().Sub(entry.fetched) < r.ttl {
		return entry.data, nil
	}

	data, err := r.fetch(ctx, origin+"/robots.txt")
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[origin] = robotsEntry{data: data, fetched: r.now()}
	r.mu.Unlock()
	return data, nil
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// robotstxt maps 4xx to allow-all and 5xx to disallow-all
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

// NormalizeUserAgent reduces "name/1.0 (+url)" to "name" for group matching
func NormalizeUserAgent(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ua
	}
	product, _, _ := strings.Cut(fields[0], "/")
	return product
}
