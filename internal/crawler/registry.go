package crawler

import "sync"

// VisitedRegistry tracks which normalized URLs have already been claimed
// for fetching. It is the single dedup point of the crawl: a URL passes
// through the registry exactly once no matter how many workers race on it.
type VisitedRegistry struct {
	mu      sync.Mutex
	visited map[string]struct{}
}

// NewVisitedRegistry creates an empty registry.
func NewVisitedRegistry() *VisitedRegistry {
	return &VisitedRegistry{
		visited: make(map[string]struct{}),
	}
}

// TryMarkVisited atomically marks a normalized URL as visited.
// It returns true if this call claimed the URL, false if the URL was
// already marked. Callers must only fetch a URL when this returns true.
//
// Design decision: Check-and-mark is a single operation under one lock
// rather than separate IsVisited/MarkVisited calls. Two workers racing
// on the same URL would otherwise both see "not visited" and fetch it
// twice.
func (r *VisitedRegistry) TryMarkVisited(normalizedURL string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.visited[normalizedURL]; ok {
		return false
	}
	r.visited[normalizedURL] = struct{}{}
	return true
}

// IsVisited reports whether a normalized URL has been claimed.
func (r *VisitedRegistry) IsVisited(normalizedURL string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.visited[normalizedURL]
	return ok
}

// Len returns the number of unique URLs claimed so far.
func (r *VisitedRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.visited)
}
