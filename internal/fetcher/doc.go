// Package fetcher retrieves web pages for the crawler. It provides a
// plain HTTP fetcher with compressed-response decoding, a headless
// Chrome renderer for JavaScript-heavy pages, and a composite that
// falls back from one to the other.
package fetcher
