package crawler

import "errors"

// Crawl session errors.
//
// Design decision: We use package-level sentinel errors so callers can
// distinguish a failed session (seed unreachable) from a cancelled one
// with errors.Is() instead of string matching.
var (
	// ErrSeedUnreachable is returned when the seed URL cannot be fetched
	// at all, so the session fails without crawling anything.
	// A non-2xx response from the seed is NOT this error; the server
	// answered, so the crawl proceeds.
	ErrSeedUnreachable = errors.New("seed URL unreachable")

	// ErrSessionAlreadyRun is returned when Run is called on a session
	// that already ran. Sessions are single-use.
	ErrSessionAlreadyRun = errors.New("crawl session already run")
)
