// Package crawler implements the crawl engine: URL normalization, the
// visited registry, the BFS frontier with depth and page budgets, the
// worker pool, per-host politeness limiting, link extraction, and the
// crawl session that ties them together.
package crawler
