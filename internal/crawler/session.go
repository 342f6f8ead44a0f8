package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// Fetcher retrieves a single page.
// Implementations must honor context cancellation and are safe for
// concurrent use by multiple workers.
type Fetcher interface {
	// Fetch retrieves the page at the given URL. A non-2xx response is
	// not an error; an error means no usable response arrived at all.
	Fetch(ctx context.Context, pageURL string) (*model.Page, error)
}

// Verdict is the outcome of classifying a fetched page.
type Verdict struct {
	// IsProduct reports whether the page is a product page.
	IsProduct bool

	// MatchedBy names the rule that produced a positive verdict.
	MatchedBy string

	// Confidence is the classifier's score in [0, 1].
	// Informational; IsProduct is the decision.
	Confidence float64

	// FollowLinks reports whether the page's links should be crawled.
	// False for non-HTML content.
	FollowLinks bool
}

// Classifier decides whether a fetched page is a product page.
// Implementations are safe for concurrent use.
type Classifier interface {
	// Classify inspects a fetched page. An error means the page could
	// not be analyzed; the caller treats it as a non-product and counts
	// the error.
	Classify(page *model.Page) (Verdict, error)
}

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	// Allowed reports whether fetching the URL is permitted.
	// Implementations should fail open when the policy itself cannot
	// be retrieved.
	Allowed(ctx context.Context, pageURL string) bool
}

// Session is a single crawl of one domain: a BFS over the site's internal
// link graph bounded by depth and page budgets, run by a pool of workers.
//
// A Session is single-use. Create it, call Run once, read the report.
//
// Design decision: The session owns the frontier, registry, and stats and
// exposes only the final report. Workers communicate exclusively through
// those three structures, so there is no per-worker state to reconcile at
// the end.
type Session struct {
	id       string
	seedURL  string
	host     string
	maxDepth int
	maxPages int
	workers  int

	fetcher    Fetcher
	classifier Classifier
	robots     RobotsPolicy
	limiter    *HostLimiter
	logger     *slog.Logger

	frontier *Frontier
	registry *VisitedRegistry
	stats    *Stats

	mu       sync.Mutex
	state    model.SessionState
	results  []model.PageResult
	products []string
	ran      bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMaxDepth sets the maximum BFS depth.
// 0 = only the seed page, 1 = seed plus directly linked pages, etc.
func WithMaxDepth(depth int) SessionOption {
	return func(s *Session) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to fetch.
func WithMaxPages(maxPages int) SessionOption {
	return func(s *Session) {
		s.maxPages = maxPages
	}
}

// WithWorkers sets the number of concurrent crawl workers.
func WithWorkers(n int) SessionOption {
	return func(s *Session) {
		s.workers = n
	}
}

// WithRobotsPolicy sets the robots.txt policy consulted before each fetch.
// Nil (the default) means no robots checks.
func WithRobotsPolicy(p RobotsPolicy) SessionOption {
	return func(s *Session) {
		s.robots = p
	}
}

// WithHostLimiter sets the politeness limiter applied before each fetch.
func WithHostLimiter(l *HostLimiter) SessionOption {
	return func(s *Session) {
		s.limiter = l
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a crawl session for the given seed URL.
// The seed may be a bare domain; it is normalized before use.
//
// Design decision: We require the fetcher and classifier as explicit
// arguments rather than options because a session cannot function
// without them, and a missing option would only surface as a nil
// dereference mid-crawl.
func NewSession(seed string, fetcher Fetcher, cls Classifier, opts ...SessionOption) (*Session, error) {
	seedURL, err := NormalizeSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	u, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}

	s := &Session{
		id:         uuid.NewString(),
		seedURL:    seedURL,
		host:       u.Host,
		maxDepth:   3,
		maxPages:   1000,
		workers:    10,
		fetcher:    fetcher,
		classifier: cls,
		logger:     slog.Default(),
		registry:   NewVisitedRegistry(),
		stats:      NewStats(),
		state:      model.StateCreated,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.maxDepth < 0 {
		return nil, fmt.Errorf("invalid max depth %d: must be non-negative", s.maxDepth)
	}
	if s.maxPages <= 0 {
		return nil, fmt.Errorf("invalid max pages %d: must be positive", s.maxPages)
	}
	if s.workers <= 0 {
		return nil, fmt.Errorf("invalid worker count %d: must be positive", s.workers)
	}

	// The seed is fetched outside the frontier, so the frontier's
	// budget is one less than the session's page budget.
	s.frontier = NewFrontier(s.maxPages - 1)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current lifecycle state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the session counters.
// Safe to call while the crawl is running.
func (s *Session) Stats() model.CrawlStats {
	return s.stats.Snapshot()
}

// Run executes the crawl and returns the final report.
//
// The seed URL is fetched first, synchronously. If the seed fetch fails
// at the transport level the session ends in StateFailed and Run returns
// ErrSeedUnreachable alongside the report. A non-2xx seed response is an
// ordinary result; the crawl completes with whatever it found.
//
// Cancellation through ctx ends the session in StateCancelled. The
// report always reflects the work done up to that point.
func (s *Session) Run(ctx context.Context) (*model.CrawlReport, error) {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return nil, ErrSessionAlreadyRun
	}
	s.ran = true
	s.state = model.StateRunning
	s.mu.Unlock()

	startedAt := time.Now()
	s.logger.Info("crawl started",
		slog.String("session", s.id),
		slog.String("seed", s.seedURL),
		slog.Int("max_depth", s.maxDepth),
		slog.Int("max_pages", s.maxPages),
		slog.Int("workers", s.workers))

	// The seed is claimed and fetched before workers start so that a
	// dead host fails the session instead of producing an empty crawl.
	s.registry.TryMarkVisited(s.seedURL)
	if err := s.crawlSeed(ctx); err != nil {
		report := s.buildReport(model.StateFailed, startedAt, err)
		s.logger.Error("crawl failed", slog.String("session", s.id), slog.String("error", err.Error()))
		return report, fmt.Errorf("%w: %s", ErrSeedUnreachable, err)
	}

	// Close the frontier when the context is cancelled so blocked
	// workers wake up and drain out.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.frontier.Close()
		case <-watchDone:
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for range s.workers {
		g.Go(func() error {
			s.workLoop(gctx)
			return nil
		})
	}
	_ = g.Wait() // workers absorb their own errors
	close(watchDone)

	finalState := model.StateCompleted
	if ctx.Err() != nil {
		finalState = model.StateCancelled
	}
	report := s.buildReport(finalState, startedAt, nil)

	s.logger.Info("crawl finished",
		slog.String("session", s.id),
		slog.String("state", string(finalState)),
		slog.Int64("pages_crawled", report.Stats.PagesCrawled),
		slog.Int64("products_found", report.Stats.ProductURLsFound),
		slog.Duration("duration", report.Duration()))
	return report, nil
}

// crawlSeed fetches and processes the seed page.
// Returns an error only for transport-level failures.
func (s *Session) crawlSeed(ctx context.Context) error {
	entry := FrontierEntry{URL: s.seedURL, Depth: 0}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.host); err != nil {
			return err
		}
	}

	page, err := s.fetcher.Fetch(ctx, s.seedURL)
	if err != nil {
		s.stats.PageCrawled(s.host)
		s.stats.Error(s.host)
		s.recordResult(model.PageResult{
			URL:    s.seedURL,
			Depth:  0,
			Status: model.FetchTransportError,
			Err:    err.Error(),
		})
		return err
	}

	s.processPage(entry, page)
	return nil
}

// workLoop is the body of one crawl worker: pop, fetch, classify,
// enqueue discovered links, repeat until the frontier reports completion.
func (s *Session) workLoop(ctx context.Context) {
	for {
		entry, ok := s.frontier.Pop()
		if !ok {
			return
		}
		s.crawlOne(ctx, entry)
		s.frontier.Done()
	}
}

// crawlOne processes a single frontier entry.
// All failures are absorbed into stats and results; a worker never stops
// because one page misbehaved.
func (s *Session) crawlOne(ctx context.Context, entry FrontierEntry) {
	if ctx.Err() != nil {
		return
	}

	if s.robots != nil && !s.robots.Allowed(ctx, entry.URL) {
		s.stats.SkippedRobots()
		s.recordResult(model.PageResult{
			URL:    entry.URL,
			Depth:  entry.Depth,
			Status: model.FetchSkipped,
			Err:    "disallowed by robots.txt",
		})
		s.logger.Debug("robots disallowed", slog.String("url", entry.URL))
		return
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.host); err != nil {
			return
		}
	}

	// A fetch that has started runs to completion. Cancellation stops
	// new work through the frontier, not requests already in flight.
	page, err := s.fetcher.Fetch(context.WithoutCancel(ctx), entry.URL)
	if err != nil {
		host := urlHost(entry.URL)
		s.stats.PageCrawled(host)
		s.stats.Error(host)
		s.recordResult(model.PageResult{
			URL:    entry.URL,
			Depth:  entry.Depth,
			Status: model.FetchTransportError,
			Err:    err.Error(),
		})
		s.logger.Debug("fetch failed", slog.String("url", entry.URL), slog.String("error", err.Error()))
		return
	}

	s.processPage(entry, page)
}

// processPage classifies a fetched page and enqueues its internal links.
func (s *Session) processPage(entry FrontierEntry, page *model.Page) {
	host := urlHost(entry.URL)
	s.stats.PageCrawled(host)
	page.Depth = entry.Depth

	if page.StatusCode < 200 || page.StatusCode > 299 {
		s.stats.Error(host)
		s.recordResult(model.PageResult{
			URL:        entry.URL,
			Depth:      entry.Depth,
			Status:     model.FetchHTTPError,
			StatusCode: page.StatusCode,
			Err:        fmt.Sprintf("HTTP %d", page.StatusCode),
		})
		s.logger.Debug("http error", slog.String("url", entry.URL), slog.Int("status", page.StatusCode))
		return
	}

	result := model.PageResult{
		URL:        entry.URL,
		Depth:      entry.Depth,
		Status:     model.FetchOK,
		StatusCode: page.StatusCode,
	}

	verdict, err := s.classifier.Classify(page)
	if err != nil {
		// A page we can't analyze is not a product, but the crawl
		// goes on.
		s.stats.Error(host)
		result.Err = err.Error()
		s.logger.Debug("classification failed", slog.String("url", entry.URL), slog.String("error", err.Error()))
	}
	if verdict.IsProduct {
		result.IsProduct = true
		result.MatchedBy = verdict.MatchedBy
		s.addProduct(entry.URL)
		s.logger.Debug("product found", slog.String("url", entry.URL), slog.String("matched_by", verdict.MatchedBy))
	}

	if verdict.FollowLinks && page.IsHTML() {
		result.LinksFound = s.enqueueLinks(entry, page)
	}

	s.recordResult(result)
}

// enqueueLinks extracts same-host links from the page and pushes the new
// ones onto the frontier. Returns the number of internal links found.
func (s *Session) enqueueLinks(entry FrontierEntry, page *model.Page) int {
	parser, err := NewParser(entry.URL)
	if err != nil {
		return 0
	}
	parsed, err := parser.Parse(strings.NewReader(string(page.Raw)))
	if err != nil {
		return 0
	}

	for _, link := range parsed.InternalLinks {
		normalized, err := NormalizeURL(link)
		if err != nil {
			continue
		}
		if !SameHost(s.host, normalized) {
			continue
		}
		if entry.Depth+1 > s.maxDepth {
			s.stats.SkippedDepth()
			continue
		}
		if !s.registry.TryMarkVisited(normalized) {
			s.stats.SkippedDuplicate()
			continue
		}
		s.frontier.Push(FrontierEntry{URL: normalized, Depth: entry.Depth + 1})
	}

	return len(parsed.InternalLinks)
}

// addProduct records a product URL. URLs reach this at most once because
// the registry admits each normalized URL exactly once.
func (s *Session) addProduct(pageURL string) {
	s.stats.ProductFound(urlHost(pageURL))
	s.mu.Lock()
	s.products = append(s.products, pageURL)
	s.mu.Unlock()
}

func (s *Session) recordResult(r model.PageResult) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

// buildReport assembles the final report and moves the session to its
// terminal state.
func (s *Session) buildReport(state model.SessionState, startedAt time.Time, cause error) *model.CrawlReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state

	products := make([]string, len(s.products))
	copy(products, s.products)
	sort.Strings(products)

	results := make([]model.PageResult, len(s.results))
	copy(results, s.results)

	report := &model.CrawlReport{
		SessionID:   s.id,
		Domain:      s.host,
		SeedURL:     s.seedURL,
		State:       state,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
		ProductURLs: products,
		Stats:       s.stats.Snapshot(),
		Results:     results,
	}
	if cause != nil {
		report.Error = cause.Error()
	}
	return report
}
