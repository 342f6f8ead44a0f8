package model

// CrawlStats is an immutable snapshot of the counters a crawl session
// maintains. Snapshots are safe to read while the crawl is still running.
type CrawlStats struct {
	// PagesCrawled is the number of URLs actually fetched, successfully
	// or not. Skipped URLs are not included.
	PagesCrawled int64 `json:"pages_crawled"`

	// ProductURLsFound is the number of unique URLs classified as
	// product pages.
	ProductURLsFound int64 `json:"product_urls_found"`

	// Errors is the number of fetch and classification failures.
	Errors int64 `json:"errors"`

	// PagesSkippedDepth counts links dropped because following them
	// would exceed the configured maximum depth.
	PagesSkippedDepth int64 `json:"pages_skipped_depth"`

	// PagesSkippedDuplicate counts links dropped because their
	// normalized URL was already visited or enqueued.
	PagesSkippedDuplicate int64 `json:"pages_skipped_duplicate"`

	// PagesSkippedRobots counts links dropped because robots.txt
	// disallowed them.
	PagesSkippedRobots int64 `json:"pages_skipped_robots"`

	// PerHost breaks the fetch counters down by host. For a
	// single-host crawl it holds one entry; hosts that differ only
	// by port are separate keys.
	PerHost map[string]HostStats `json:"per_host,omitempty"`
}

// HostStats is the per-host slice of the session counters.
type HostStats struct {
	// PagesCrawled is the number of URLs fetched from this host.
	PagesCrawled int64 `json:"pages_crawled"`

	// ProductURLsFound is the number of product pages found on this host.
	ProductURLsFound int64 `json:"product_urls_found"`

	// Errors is the number of fetch and classification failures on
	// this host.
	Errors int64 `json:"errors"`
}
