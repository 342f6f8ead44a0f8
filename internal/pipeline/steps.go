package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/dreat42/Ecom-Crawler/internal/classifier"
	"github.com/dreat42/Ecom-Crawler/internal/config"
	"github.com/dreat42/Ecom-Crawler/internal/crawler"
	"github.com/dreat42/Ecom-Crawler/internal/database"
	"github.com/dreat42/Ecom-Crawler/internal/fetcher"
	"github.com/dreat42/Ecom-Crawler/internal/model"
	"github.com/dreat42/Ecom-Crawler/internal/report"
	"github.com/dreat42/Ecom-Crawler/internal/robots"
)

// CrawlStep runs a full crawl session for one target and fills the report
// with its outcome. This is the core step of every pipeline; the steps
// after it only consume what it produced.
//
// Design decision: The step assembles the fetcher, classifier, and robots
// agent itself from the configuration instead of receiving them pre-built.
// Each target may carry site-specific overrides (cookies, patterns,
// rendering), so the components have to be constructed per target anyway.
type CrawlStep struct {
	// cfg is the global configuration including site overrides.
	cfg *config.Config

	// target is the domain or seed URL to crawl.
	target string

	// fetch overrides the built fetcher when set. Used in tests to
	// crawl httptest servers without real transport settings.
	fetch crawler.Fetcher

	// robotsPolicy overrides the built robots agent when set.
	robotsPolicy crawler.RobotsPolicy

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// WithCrawlFetcher overrides the fetcher built from configuration.
func WithCrawlFetcher(f crawler.Fetcher) CrawlStepOption {
	return func(s *CrawlStep) {
		s.fetch = f
	}
}

// WithCrawlRobotsPolicy overrides the robots agent built from configuration.
func WithCrawlRobotsPolicy(p crawler.RobotsPolicy) CrawlStepOption {
	return func(s *CrawlStep) {
		s.robotsPolicy = p
	}
}

// NewCrawlStep creates a crawl step for a single target.
func NewCrawlStep(cfg *config.Config, target string, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		cfg:    cfg,
		target: target,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl and copies the session's report into the
// pipeline report. A failed session (unreachable seed) is copied too so
// later steps can persist and print the failure.
func (s *CrawlStep) Do(ctx context.Context, rep *model.CrawlReport) error {
	seed, err := crawler.NormalizeSeed(s.target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", s.target, err)
	}

	u, err := url.Parse(seed)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", s.target, err)
	}
	host := u.Host

	// Pre-populate so failures before the session starts still carry
	// enough context for persistence and output.
	rep.Domain = host
	rep.SeedURL = seed

	site := config.SiteConfig{}
	if s.cfg.SiteConfigs != nil {
		site = s.cfg.SiteConfigs.GetSiteConfig(host)
	}

	cls, err := s.buildClassifier(site)
	if err != nil {
		return fmt.Errorf("build classifier for %s: %w", host, err)
	}

	fetch := s.fetch
	var httpFetcher *fetcher.HTTPFetcher
	if fetch == nil {
		httpFetcher, fetch, err = s.buildFetcher(site)
		if err != nil {
			return fmt.Errorf("build fetcher for %s: %w", host, err)
		}
	}

	sessionOpts := []crawler.SessionOption{
		crawler.WithMaxDepth(s.effectiveDepth(site)),
		crawler.WithMaxPages(s.effectiveMaxPages(site)),
		crawler.WithWorkers(s.cfg.Concurrency),
		crawler.WithHostLimiter(crawler.NewHostLimiter(s.cfg.CrawlDelay, crawler.RateLimit{})),
		crawler.WithLogger(s.logger),
	}

	if policy := s.buildRobotsPolicy(httpFetcher); policy != nil {
		sessionOpts = append(sessionOpts, crawler.WithRobotsPolicy(policy))
	}

	session, err := crawler.NewSession(seed, fetch, cls, sessionOpts...)
	if err != nil {
		return fmt.Errorf("create session for %s: %w", host, err)
	}

	result, runErr := session.Run(ctx)
	if result != nil {
		*rep = *result
	}
	if runErr != nil {
		return runErr
	}
	return nil
}

// buildClassifier constructs the classifier, applying site overrides.
func (s *CrawlStep) buildClassifier(site config.SiteConfig) (*classifier.Classifier, error) {
	var opts []classifier.Option
	if len(site.ProductPatterns) > 0 {
		opts = append(opts, classifier.WithProductPatterns(site.ProductPatterns))
	}
	if len(site.ExcludePatterns) > 0 {
		opts = append(opts, classifier.WithExcludePatterns(site.ExcludePatterns))
	}
	if len(site.ContentSignals) > 0 {
		opts = append(opts, classifier.WithContentSignals(site.ContentSignals))
	}
	return classifier.New(opts...)
}

// buildFetcher constructs the HTTP fetcher and, when rendering is
// enabled globally or for this site, wraps it in a composite fetcher
// with a headless Chrome fallback.
func (s *CrawlStep) buildFetcher(site config.SiteConfig) (*fetcher.HTTPFetcher, crawler.Fetcher, error) {
	opts := []fetcher.Option{
		fetcher.WithTimeout(s.cfg.Timeout),
		fetcher.WithUserAgent(s.cfg.UserAgent),
		fetcher.WithMaxBodySize(s.cfg.MaxBodySize),
	}
	if site.Cookie != "" {
		opts = append(opts, fetcher.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		opts = append(opts, fetcher.WithHeaders(site.Headers))
	}
	if s.cfg.ProxyURL != "" {
		opts = append(opts, fetcher.WithProxyURL(s.cfg.ProxyURL))
	}

	httpFetcher, err := fetcher.NewHTTPFetcher(opts...)
	if err != nil {
		return nil, nil, err
	}

	if !s.cfg.Render && !site.Render {
		return httpFetcher, httpFetcher, nil
	}

	renderer := fetcher.NewChromedpRenderer(fetcher.RenderOptions{
		Timeout:     config.DefaultRenderTimeout,
		UserAgent:   s.cfg.UserAgent,
		MaxBodySize: s.cfg.MaxBodySize,
	})
	return httpFetcher, fetcher.NewComposite(httpFetcher, renderer), nil
}

// buildRobotsPolicy returns the robots policy for the session, or nil
// when robots.txt checks are disabled.
func (s *CrawlStep) buildRobotsPolicy(httpFetcher *fetcher.HTTPFetcher) crawler.RobotsPolicy {
	if s.robotsPolicy != nil {
		return s.robotsPolicy
	}
	if s.cfg.IgnoreRobots || httpFetcher == nil {
		return nil
	}
	return robots.NewAgent(httpFetcher.Client(), robots.WithUserAgent(s.cfg.UserAgent))
}

// effectiveDepth returns the site depth override or the global maximum.
func (s *CrawlStep) effectiveDepth(site config.SiteConfig) int {
	if site.Depth > 0 {
		return site.Depth
	}
	return s.cfg.MaxDepth
}

// effectiveMaxPages returns the site page budget override or the global one.
func (s *CrawlStep) effectiveMaxPages(site config.SiteConfig) int {
	if site.MaxPages > 0 {
		return site.MaxPages
	}
	return s.cfg.MaxPages
}

// PersistStep saves the crawl report to the SQLite database.
// Product URLs from the report are upserted so repeated crawls of the
// same domain accumulate a deduplicated product catalog.
type PersistStep struct {
	// db is the database handle shared across the batch.
	db *database.CrawlDB

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a persistence step writing to the given database.
func NewPersistStep(db *database.CrawlDB, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves the report. Reports without a domain are skipped because
// nothing useful can be keyed on them.
func (s *PersistStep) Do(ctx context.Context, rep *model.CrawlReport) error {
	if rep.Domain == "" {
		s.logger.Debug("skipping persistence for report without domain")
		return nil
	}

	if err := s.db.SaveCrawlReport(ctx, rep); err != nil {
		return fmt.Errorf("save report for %s: %w", rep.Domain, err)
	}

	s.logger.Debug("report persisted",
		"domain", rep.Domain,
		"session", rep.SessionID,
		"products", len(rep.ProductURLs),
	)
	return nil
}

// OutputStep renders the crawl report through a report writer.
// The writer decides the format and destination.
type OutputStep struct {
	// writer renders the report.
	writer report.Writer

	// logger for structured logging.
	logger *slog.Logger
}

// OutputStepOption configures an OutputStep.
type OutputStepOption func(*OutputStep)

// WithOutputLogger sets a custom logger for the output step.
func WithOutputLogger(logger *slog.Logger) OutputStepOption {
	return func(s *OutputStep) {
		s.logger = logger
	}
}

// NewOutputStep creates an output step using the given writer.
func NewOutputStep(w report.Writer, opts ...OutputStepOption) *OutputStep {
	s := &OutputStep{
		writer: w,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *OutputStep) Name() string {
	return "output"
}

// Do writes the report.
func (s *OutputStep) Do(_ context.Context, rep *model.CrawlReport) error {
	n, err := s.writer.Write(rep)
	if err != nil {
		return fmt.Errorf("write report for %s: %w", rep.Domain, err)
	}

	s.logger.Debug("report written",
		"domain", rep.Domain,
		"bytes", n,
	)
	return nil
}

// DefaultPipeline assembles the standard pipeline for one target:
// crawl, optionally persist, then output.
//
// The database may be nil when persistence is disabled. The writer may
// be nil when no output is wanted (e.g. in library use).
func DefaultPipeline(
	cfg *config.Config,
	target string,
	db *database.CrawlDB,
	writer report.Writer,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := New(
		WithLogger(logger),
		// A dead seed should still produce a persisted, printed report.
		WithContinueOnError(true),
	)

	p.AddStep(NewCrawlStep(cfg, target, WithCrawlLogger(logger)))
	if db != nil && cfg.SaveToDB {
		p.AddStep(NewPersistStep(db, WithPersistLogger(logger)))
	}
	if writer != nil {
		p.AddStep(NewOutputStep(writer, WithOutputLogger(logger)))
	}

	return p
}
