package robots

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

// DefaultCacheTTL is how long fetched robots.txt rules stay cached.
// Half an hour is far longer than any single crawl session, so in
// practice each host's rules are fetched once per run.
const DefaultCacheTTL = 30 * time.Minute

// Agent evaluates robots.txt rules with per-host caching.
// It implements crawler.RobotsPolicy and is safe for concurrent use.
//
// Design decision: Errors fetching or parsing robots.txt fail open.
// A site with a broken robots.txt has not expressed a crawl policy, and
// failing closed would silently skip entire domains on transient errors.
type Agent struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithUserAgent sets the user agent used for rule matching and for
// fetching robots.txt itself.
func WithUserAgent(ua string) AgentOption {
	return func(a *Agent) {
		a.userAgent = ua
	}
}

// WithCacheTTL overrides the rule cache lifetime.
func WithCacheTTL(ttl time.Duration) AgentOption {
	return func(a *Agent) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// NewAgent constructs a robots agent.
// A nil client falls back to a 10-second-timeout default; callers
// normally pass the fetcher's client so proxy settings carry over.
func NewAgent(client *http.Client, opts ...AgentOption) *Agent {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	a := &Agent{
		client: client,
		ttl:    DefaultCacheTTL,
		cache:  make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allowed reports whether fetching the URL is permitted.
func (a *Agent) Allowed(ctx context.Context, pageURL string) bool {
	target, err := url.Parse(pageURL)
	if err != nil || !target.IsAbs() {
		return false
	}

	rules, err := a.rules(ctx, target)
	if err != nil {
		// Fail open on robots errors.
		return true
	}

	group := rules.FindGroup(a.userAgent)
	if group == nil {
		group = rules.FindGroup("*")
		if group == nil {
			return true
		}
	}
	return group.Test(target.Path)
}

func (a *Agent) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := strings.ToLower(target.Host)

	a.mu.RLock()
	entry, ok := a.cache[host]
	if ok && time.Since(entry.fetched) < a.ttl {
		a.mu.RUnlock()
		return entry.rules, nil
	}
	a.mu.RUnlock()

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("robots returned status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	a.mu.Lock()
	a.cache[host] = cacheEntry{fetched: time.Now(), rules: data}
	a.mu.Unlock()

	return data, nil
}

// Purge evicts cached rules for a host.
func (a *Agent) Purge(host string) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return
	}
	a.mu.Lock()
	delete(a.cache, host)
	a.mu.Unlock()
}
