package model

// FetchStatus classifies the outcome of fetching a single URL.
type FetchStatus string

const (
	// FetchOK means the URL returned a successful (2xx) response.
	FetchOK FetchStatus = "ok"

	// FetchHTTPError means the server responded with a non-2xx status.
	// The page is counted as crawled but not parsed for links.
	FetchHTTPError FetchStatus = "http_error"

	// FetchTransportError means the request failed before a response
	// arrived (DNS failure, connection refused, timeout).
	FetchTransportError FetchStatus = "fetch_error"

	// FetchSkipped means the URL was never fetched, for example because
	// robots.txt disallowed it.
	FetchSkipped FetchStatus = "skipped"
)

// PageResult records the per-URL outcome of a crawl step: the fetch status,
// the classification verdict, and any error encountered along the way.
type PageResult struct {
	// URL is the normalized URL this result describes.
	URL string `json:"url"`

	// Depth is the BFS depth at which the URL was processed.
	Depth int `json:"depth"`

	// Status is the fetch outcome.
	Status FetchStatus `json:"status"`

	// StatusCode is the HTTP status code, zero when no response arrived.
	StatusCode int `json:"status_code,omitempty"`

	// IsProduct reports whether the classifier marked this URL as a
	// product page.
	IsProduct bool `json:"is_product"`

	// MatchedBy names the classifier rule that produced the verdict,
	// e.g. "url:/product/" or "content:ld+json". Empty for non-products.
	MatchedBy string `json:"matched_by,omitempty"`

	// LinksFound is the number of same-domain links extracted from the page.
	LinksFound int `json:"links_found,omitempty"`

	// Err holds the error message for failed fetches or classifications.
	Err string `json:"error,omitempty"`
}
