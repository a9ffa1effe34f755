// Package ratelimit provides a fixed-window in-memory request limiter.
// Counters reset a full window after the first request that opened
// them, which keeps bookkeeping to one timestamp and one count per key.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of a limit check, carrying the state callers
// attach as X-RateLimit-* response headers.
type Result struct {
	Allowed        bool
	Limit          uint64
	Remaining      uint64
	RetryAfterSecs uint64
}

type window struct {
	start time.Time
	count uint64
}

// Limiter tracks request counts per key over a fixed window.
type Limiter struct {
	window  time.Duration
	mu      sync.Mutex
	buckets map[string]*window
}

// New creates a limiter with the given window duration.
func New(windowDur time.Duration) *Limiter {
	return &Limiter{
		window:  windowDur,
		buckets: make(map[string]*window),
	}
}

// Check consumes one request for key against limit and reports whether
// it is allowed along with the current window state.
func (l *Limiter) Check(key string, limit uint64) Result {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.buckets[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.buckets[key] = w
	}

	reset := l.window - now.Sub(w.start)
	if reset < 0 {
		reset = 0
	}
	retryAfter := uint64(reset / time.Second)

	if w.count >= limit {
		return Result{
			Allowed:        false,
			Limit:          limit,
			Remaining:      0,
			RetryAfterSecs: retryAfter,
		}
	}

	w.count++
	return Result{
		Allowed:        true,
		Limit:          limit,
		Remaining:      limit - w.count,
		RetryAfterSecs: retryAfter,
	}
}

// PruneStale drops windows that have fully elapsed so idle keys do not
// accumulate forever.
func (l *Limiter) PruneStale() {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.buckets {
		if now.Sub(w.start) >= l.window {
			delete(l.buckets, key)
		}
	}
}

// PruneLoop prunes stale windows on every tick until the context is
// cancelled. Run it in its own goroutine.
func (l *Limiter) PruneLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.PruneStale()
		}
	}
}

// size reports the number of live windows, for tests.
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
