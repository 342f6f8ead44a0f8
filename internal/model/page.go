package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Page represents a fetched web page together with the response metadata
// the classifier and link extractor need.
//
// Design decision: We store the raw body alongside the parsed metadata because:
// 1. The classifier re-parses the body for content signals (JSON-LD, markup)
// 2. Link extraction and classification happen in separate steps
// 3. The hash allows deduplication and change detection across sessions
type Page struct {
	// URL is the normalized URL the page was fetched from.
	URL string `json:"url"`

	// Depth is the BFS distance from the seed URL. The seed itself is depth 0.
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers.
	// Keys are header names (canonicalized), values are slices of header values.
	Headers map[string][]string `json:"headers"`

	// ContentType is the MIME type of the response.
	// Extracted from Content-Type header for convenience.
	ContentType string `json:"content_type"`

	// Title is the page title extracted from <title> tag.
	// Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// Raw contains the raw response body bytes.
	// Limited to MaxPageSize bytes.
	Raw []byte `json:"-"` // Excluded from JSON to reduce report size

	// Hash is the SHA-256 hash of the raw content.
	// Used for deduplication and change detection.
	Hash string `json:"hash"`

	// Rendered reports whether the body came from a JavaScript-rendering
	// fallback rather than a plain HTTP fetch.
	Rendered bool `json:"rendered,omitempty"`

	// FetchedAt is the time the response was received.
	FetchedAt time.Time `json:"fetched_at"`
}

// MaxPageSize is the maximum size of raw page content to store.
// Larger responses are truncated to this size.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
// This should be called after setting the Raw field.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
// Header names are case-insensitive in HTTP, but Go's http package
// canonicalizes them, so we store them in canonical form.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML returns true if the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	return p.ContentType == "text/html" ||
		p.ContentType == "application/xhtml+xml" ||
		// Handle content types with charset suffix
		len(p.ContentType) > 9 && p.ContentType[:9] == "text/html"
}

// TruncateRaw ensures the raw content doesn't exceed MaxPageSize.
// Call this after setting Raw to enforce the size limit.
func (p *Page) TruncateRaw() {
	if len(p.Raw) > MaxPageSize {
		p.Raw = p.Raw[:MaxPageSize]
	}
}
