package crawler

import (
	"context"
	"testing"
	"time"
)

func TestHostLimiter_Wait(t *testing.T) {
	t.Parallel()

	t.Run("zero config never blocks", func(t *testing.T) {
		t.Parallel()

		l := NewHostLimiter(0, RateLimit{})
		start := time.Now()
		for range 10 {
			if err := l.Wait(context.Background(), "example.com"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("expected no blocking, waited %v", elapsed)
		}
	})

	t.Run("enforces per-host delay", func(t *testing.T) {
		t.Parallel()

		l := NewHostLimiter(50*time.Millisecond, RateLimit{})
		ctx := context.Background()

		if err := l.Wait(ctx, "example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		start := time.Now()
		if err := l.Wait(ctx, "example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
			t.Errorf("expected second request delayed ~50ms, waited only %v", elapsed)
		}
	})

	t.Run("different hosts don't delay each other", func(t *testing.T) {
		t.Parallel()

		l := NewHostLimiter(200*time.Millisecond, RateLimit{})
		ctx := context.Background()

		if err := l.Wait(ctx, "a.example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		start := time.Now()
		if err := l.Wait(ctx, "b.example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("expected no cross-host delay, waited %v", elapsed)
		}
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		t.Parallel()

		l := NewHostLimiter(5*time.Second, RateLimit{})
		ctx, cancel := context.WithCancel(context.Background())

		if err := l.Wait(ctx, "example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cancel()
		if err := l.Wait(ctx, "example.com"); err == nil {
			t.Error("expected context error, got nil")
		}
	})

	t.Run("nil limiter is a no-op", func(t *testing.T) {
		t.Parallel()

		var l *HostLimiter
		if err := l.Wait(context.Background(), "example.com"); err != nil {
			t.Errorf("unexpected error from nil limiter: %v", err)
		}
	})
}
