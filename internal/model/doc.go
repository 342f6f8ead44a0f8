// Package model defines the core data structures shared across the crawler:
// fetched pages, per-URL fetch outcomes, crawl statistics, and the per-domain
// crawl report handed to sinks and report writers.
package model
