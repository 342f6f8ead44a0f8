package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit configures token-bucket rate limiting per host:
// at most Requests requests per Window.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// HostLimiter enforces per-host politeness: a minimum delay between
// requests to the same host plus an optional token-bucket rate limit.
// It is the only place a crawl worker blocks outside of the fetch itself.
type HostLimiter struct {
	delay       time.Duration
	rate        RateLimit
	rateEnabled bool

	mu       sync.Mutex
	last     map[string]time.Time
	limiters map[string]*rate.Limiter
}

// NewHostLimiter creates a limiter with the given per-host delay and
// optional rate limit. A zero delay and zero rate limit yields a limiter
// whose Wait never blocks.
func NewHostLimiter(delay time.Duration, rl RateLimit) *HostLimiter {
	l := &HostLimiter{delay: delay}
	if delay > 0 {
		l.last = make(map[string]time.Time)
	}
	if rl.Requests > 0 && rl.Window > 0 {
		l.rateEnabled = true
		l.rate = rl
		l.limiters = make(map[string]*rate.Limiter)
		if l.last == nil {
			l.last = make(map[string]time.Time)
		}
	}
	return l
}

// Wait blocks until politeness constraints for the host are satisfied
// or the context is cancelled.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil || host == "" {
		return nil
	}
	host = strings.ToLower(host)

	if l.delay <= 0 && !l.rateEnabled {
		return nil
	}

	var sleep time.Duration
	var limiter *rate.Limiter
	now := time.Now()

	l.mu.Lock()
	if l.delay > 0 {
		if last, ok := l.last[host]; ok {
			rest := last.Add(l.delay).Sub(now)
			if rest > 0 {
				sleep = rest
			}
		}
	}
	if l.rateEnabled {
		limiter = l.ensureLimiterLocked(host)
	}
	l.mu.Unlock()

	if sleep > 0 {
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	l.mu.Lock()
	if l.last != nil {
		l.last[host] = time.Now()
	}
	l.mu.Unlock()
	return nil
}

func (l *HostLimiter) ensureLimiterLocked(host string) *rate.Limiter {
	limiter, ok := l.limiters[host]
	if ok {
		return limiter
	}
	interval := l.rate.Window / time.Duration(l.rate.Requests)
	if interval <= 0 {
		interval = time.Millisecond
	}
	burst := l.rate.Requests
	if burst <= 0 {
		burst = 1
	}
	limiter = rate.NewLimiter(rate.Every(interval), burst)
	l.limiters[host] = limiter
	return limiter
}
