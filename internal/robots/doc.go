// Package robots evaluates robots.txt rules for the crawler, with
// per-host caching and fail-open semantics: when the rules cannot be
// fetched or parsed, crawling is allowed.
package robots
