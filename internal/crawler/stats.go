package crawler

import (
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// Stats aggregates crawl counters across workers.
// All methods are safe for concurrent use; the global counters are
// independent atomics and the per-host map sits behind its own mutex,
// so a snapshot taken mid-crawl may be momentarily inconsistent between
// counters but each counter is exact.
type Stats struct {
	pagesCrawled          atomic.Int64
	productURLsFound      atomic.Int64
	errors                atomic.Int64
	pagesSkippedDepth     atomic.Int64
	pagesSkippedDuplicate atomic.Int64
	pagesSkippedRobots    atomic.Int64

	mu      sync.Mutex
	perHost map[string]model.HostStats
}

// NewStats creates a zeroed Stats.
func NewStats() *Stats {
	return &Stats{perHost: make(map[string]model.HostStats)}
}

// PageCrawled records a completed fetch attempt against the given host,
// successful or not.
func (s *Stats) PageCrawled(host string) {
	s.pagesCrawled.Add(1)
	s.mu.Lock()
	hs := s.perHost[host]
	hs.PagesCrawled++
	s.perHost[host] = hs
	s.mu.Unlock()
}

// ProductFound records a URL on the given host classified as a product page.
func (s *Stats) ProductFound(host string) {
	s.productURLsFound.Add(1)
	s.mu.Lock()
	hs := s.perHost[host]
	hs.ProductURLsFound++
	s.perHost[host] = hs
	s.mu.Unlock()
}

// Error records a fetch or classification failure on the given host.
func (s *Stats) Error(host string) {
	s.errors.Add(1)
	s.mu.Lock()
	hs := s.perHost[host]
	hs.Errors++
	s.perHost[host] = hs
	s.mu.Unlock()
}

// SkippedDepth records a link dropped for exceeding the depth limit.
func (s *Stats) SkippedDepth() {
	s.pagesSkippedDepth.Add(1)
}

// SkippedDuplicate records a link dropped as already visited.
func (s *Stats) SkippedDuplicate() {
	s.pagesSkippedDuplicate.Add(1)
}

// SkippedRobots records a URL skipped because robots.txt disallowed it.
func (s *Stats) SkippedRobots() {
	s.pagesSkippedRobots.Add(1)
}

// Snapshot returns the current counter values, including a copy of the
// per-host breakdown. Safe to call while the crawl is running.
func (s *Stats) Snapshot() model.CrawlStats {
	snap := model.CrawlStats{
		PagesCrawled:          s.pagesCrawled.Load(),
		ProductURLsFound:      s.productURLsFound.Load(),
		Errors:                s.errors.Load(),
		PagesSkippedDepth:     s.pagesSkippedDepth.Load(),
		PagesSkippedDuplicate: s.pagesSkippedDuplicate.Load(),
		PagesSkippedRobots:    s.pagesSkippedRobots.Load(),
	}

	s.mu.Lock()
	if len(s.perHost) > 0 {
		snap.PerHost = make(map[string]model.HostStats, len(s.perHost))
		for host, hs := range s.perHost {
			snap.PerHost[host] = hs
		}
	}
	s.mu.Unlock()
	return snap
}

// urlHost extracts the host part of a URL for per-host accounting.
func urlHost(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
