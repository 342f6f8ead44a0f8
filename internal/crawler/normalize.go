package crawler

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// NormalizeURL normalizes a URL to its canonical form for deduplication.
//
// Design decision: We normalize URLs because:
//  1. The same page can have many URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. Query parameter order is insignificant to servers in practice
//  4. Default ports (:80 for http, :443 for https) are redundant
//
// Normalization is idempotent: normalizing an already-normalized URL
// returns it unchanged.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in URL %q", u.Scheme, rawURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in URL %q", rawURL)
	}

	// Remove fragment
	u.Fragment = ""

	// Normalize scheme and host to lowercase
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Drop redundant default ports
	host, port, found := strings.Cut(u.Host, ":")
	if found {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			u.Host = host
		}
	}

	// Normalize root path (empty path and "/" are equivalent)
	// This handles the common case where http://example.com and
	// http://example.com/ should be treated as the same URL
	if u.Path == "" {
		u.Path = "/"
	}

	// Sort query parameters by key so ?a=1&b=2 and ?b=2&a=1 dedupe
	// to the same entry. Values under the same key keep their order.
	if u.RawQuery != "" {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		for _, k := range keys {
			for _, v := range q[k] {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(k))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
		u.RawQuery = b.String()
	}

	return u.String(), nil
}

// NormalizeSeed turns a crawl target into a normalized seed URL.
// Bare domains (no scheme) are given "https://" and a root path.
func NormalizeSeed(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("empty crawl target")
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	return NormalizeURL(target)
}

// SameHost reports whether the URL belongs to the given host.
// Comparison is case insensitive and ignores an explicit default port.
func SameHost(baseHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, baseHost) || strings.EqualFold(u.Hostname(), baseHost)
}
