package crawler

import "sync"

// FrontierEntry is a URL queued for crawling together with its BFS depth.
type FrontierEntry struct {
	// URL is the normalized URL to fetch.
	URL string

	// Depth is the BFS distance from the seed. The seed is depth 0.
	Depth int
}

// Frontier is the thread-safe BFS work queue of the crawl.
// It enforces the page budget at pop time and detects crawl completion:
// when the queue is empty and no worker is still processing a page, the
// crawl cannot produce new work and every blocked Pop returns false.
//
// Design decision: We use a condition variable instead of a channel
// because completion depends on two conditions at once (queue empty AND
// nothing in flight). A channel cannot express "no more items will ever
// arrive" without an external coordinator, while a cond lets Pop check
// the full predicate under one lock.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	entries  []FrontierEntry
	maxPages int

	// popped counts entries handed to workers. Once it reaches
	// maxPages the frontier is exhausted regardless of queue content.
	popped int

	// inFlight counts entries popped but not yet marked done.
	inFlight int

	closed bool
}

// NewFrontier creates a frontier with the given page budget.
// A budget of zero yields a frontier whose Pop returns false immediately.
func NewFrontier(maxPages int) *Frontier {
	f := &Frontier{
		entries:  make([]FrontierEntry, 0),
		maxPages: maxPages,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push appends an entry to the queue.
// Returns false without queueing when the frontier is closed or the page
// budget is already spent; pushing to an exhausted frontier is a no-op,
// not an error.
func (f *Frontier) Push(entry FrontierEntry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.popped >= f.maxPages {
		return false
	}

	f.entries = append(f.entries, entry)
	f.cond.Signal()
	return true
}

// Pop removes and returns the oldest entry.
// It blocks while the queue is empty but other workers may still add
// entries. It returns false when the crawl is finished: the frontier was
// closed, the page budget is spent, or the queue drained with no work in
// flight.
//
// Every successful Pop must be paired with exactly one Done call.
func (f *Frontier) Pop() (FrontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed || f.popped >= f.maxPages {
			// Wake any other blocked worker so it can observe the
			// same terminal condition.
			f.cond.Broadcast()
			return FrontierEntry{}, false
		}

		if len(f.entries) > 0 {
			entry := f.entries[0]
			f.entries = f.entries[1:]
			f.popped++
			f.inFlight++
			return entry, true
		}

		// Queue empty. If nothing is in flight, no worker can push
		// new entries and the crawl is complete.
		if f.inFlight == 0 {
			f.closed = true
			f.cond.Broadcast()
			return FrontierEntry{}, false
		}

		f.cond.Wait()
	}
}

// Done marks an entry returned by Pop as fully processed, including any
// Push calls its links produced. Workers call this after each page.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inFlight--
	// Other workers may be waiting to learn the crawl is complete.
	f.cond.Broadcast()
}

// Close shuts the frontier down early, typically on cancellation.
// Blocked Pop calls return false and further Pushes are rejected.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.cond.Broadcast()
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.entries)
}

// Popped returns how many entries have been handed to workers.
func (f *Frontier) Popped() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.popped
}
