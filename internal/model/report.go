package model

import "time"

// SessionState represents the lifecycle state of a crawl session.
//
// Design decision: States form a one-way machine. A session starts in
// StateCreated, moves to StateRunning when the first worker starts, and
// ends in exactly one of the terminal states. Terminal states never
// transition again.
type SessionState string

const (
	// StateCreated means the session is configured but not yet started.
	StateCreated SessionState = "CREATED"

	// StateRunning means workers are actively crawling.
	StateRunning SessionState = "RUNNING"

	// StateCompleted means the crawl drained its frontier or hit the
	// page budget without a fatal error.
	StateCompleted SessionState = "COMPLETED"

	// StateCancelled means the session was stopped by context
	// cancellation before finishing.
	StateCancelled SessionState = "CANCELLED"

	// StateFailed means the seed URL could not be fetched at all, so
	// the crawl never made progress.
	StateFailed SessionState = "FAILED"
)

// Terminal returns true if the state is one of the end states.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// CrawlReport is the final per-domain output of a crawl session.
// It is what gets persisted, compared, and rendered by report writers.
type CrawlReport struct {
	// SessionID uniquely identifies the crawl session.
	SessionID string `json:"session_id"`

	// Domain is the target host the session crawled.
	Domain string `json:"domain"`

	// SeedURL is the normalized URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// State is the terminal state the session ended in.
	State SessionState `json:"state"`

	// StartedAt is when the session entered StateRunning.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the session reached a terminal state.
	FinishedAt time.Time `json:"finished_at"`

	// ProductURLs is the sorted list of unique product page URLs found.
	ProductURLs []string `json:"product_urls"`

	// Stats holds the final counter values.
	Stats CrawlStats `json:"stats"`

	// Results holds per-URL outcomes in the order they finished.
	// Omitted from compact reports.
	Results []PageResult `json:"results,omitempty"`

	// Error describes why the session failed. Empty unless State is
	// StateFailed.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the session ran.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
