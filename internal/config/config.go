package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to balance crawl coverage against politeness
// toward the target sites.
const (
	// DefaultMaxDepth limits BFS traversal to three hops from the seed.
	// Product pages on most e-commerce layouts sit within two or three
	// clicks of the homepage (home -> category -> product), so depth 3
	// finds the bulk of the catalog without crawling pagination tails.
	DefaultMaxDepth = 3

	// DefaultMaxPages caps the number of fetched pages per domain.
	// This prevents runaway crawling on large or infinitely-generating
	// sites (calendar pages, faceted search). Users can override this
	// via the --max-pages CLI flag.
	DefaultMaxPages = 1000

	// DefaultConcurrency is the number of crawl workers per domain.
	// Ten concurrent fetches saturate most origins without tripping
	// rate limits, and matches the per-host connection defaults of
	// common CDNs.
	DefaultConcurrency = 10

	// DefaultBatchSize is the number of domains crawled concurrently
	// when processing multiple targets. Each domain already runs its
	// own worker pool, so this multiplies out to
	// BatchSize * Concurrency in-flight requests at peak.
	DefaultBatchSize = 5

	// DefaultTimeout is the per-request timeout. 30 seconds is generous
	// for slow origins while keeping stuck connections from holding a
	// worker for long.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the minimum delay between requests to the
	// same host. This is a politeness setting; 500ms keeps a 10-worker
	// pool at roughly two requests per second per host.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies the crawler in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows site
	// operators to identify crawler traffic in their logs.
	DefaultUserAgent = "EcomCrawler/1.0 (+https://github.com/dreat42/Ecom-Crawler)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultRenderTimeout is the timeout for a single headless-browser
	// render. Rendering involves browser startup and script execution,
	// so it needs more headroom than a plain fetch.
	DefaultRenderTimeout = 60 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "ecomcrawler"
)

// Config holds all configuration options for the crawler.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// Per-domain overrides live in the YAML site configuration instead.
type Config struct {
	// Targets is the list of domains or seed URLs to crawl.
	// Bare domains are normalized to "https://<domain>/".
	Targets []string

	// MaxDepth is the maximum BFS distance from the seed URL.
	// Depth 0 means only fetch the seed page.
	MaxDepth int

	// MaxPages is the maximum number of pages to fetch per domain.
	// A value of 0 means use the default (DefaultMaxPages).
	MaxPages int

	// Concurrency is the number of crawl workers per domain.
	Concurrency int

	// BatchSize is the number of domains crawled concurrently when
	// processing multiple targets.
	BatchSize int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// CrawlDelay is the minimum delay between requests to the same host.
	// Lower values may cause rate limiting or service disruption.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory
	// exhaustion. Set to 0 to use the default (5MB).
	MaxBodySize int64

	// ProxyURL is an optional HTTP(S) proxy for all requests.
	// Passed through to the transport unchanged.
	ProxyURL string

	// Render enables the headless-browser fallback for pages that
	// yield no links from their static HTML.
	Render bool

	// IgnoreRobots disables robots.txt checks.
	// By default disallowed URLs are recorded as skipped, not fetched.
	IgnoreRobots bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only progress and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .ecomcrawler in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-domain configurations loaded from the
	// config file. Populated by LoadConfigFile and consulted when
	// building each crawl session.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// When set, crawl results are saved for historical comparison.
	// When empty, results are not persisted.
	// Defaults to the XDG data directory (~/.local/share/ecomcrawler on Linux).
	DBDir string

	// SaveToDB indicates whether to save crawl results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, worker
// counts). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		MaxPages:    DefaultMaxPages,
		Concurrency: DefaultConcurrency,
		BatchSize:   DefaultBatchSize,
		Timeout:     DefaultTimeout,
		CrawlDelay:  DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for the crawler.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/ecomcrawler
// On macOS: ~/Library/Application Support/ecomcrawler
// On Windows: %LOCALAPPDATA%\ecomcrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the crawler.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one target to crawl
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// MaxDepth must be non-negative; depth 0 means seed only
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	// MaxPages must be positive; zero pages would mean no crawling
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	// Concurrency must be positive; zero workers would deadlock the frontier
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// BatchSize must be positive; zero would mean no crawling
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	// MaxBodySize must be non-negative if set
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
