// Package database provides SQLite-based persistence for crawl results:
// discovered product URLs (deduplicated across runs) and full crawl
// reports for historical comparison.
package database
