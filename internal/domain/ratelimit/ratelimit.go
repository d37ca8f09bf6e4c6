// Package ratelimit provides a per-player sliding-window limiter for score
// submissions.
package ratelimit

import (
	"sync"
	"time"

	"github.com/SuperSonnix71/Xnake/pkg/metrics"
)

// Defaults for the submission limiter.
const (
	DefaultEvents = 10
	DefaultWindow = time.Minute

	// gcInterval bounds how often idle players are swept from memory.
	gcInterval = time.Hour
)

// Limiter counts events per key inside a sliding window. It is memory-only;
// a restart resets all counters, which is acceptable for abuse throttling.
type Limiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	lastGC time.Time

	limit  int
	window time.Duration
	now    func() time.Time
}

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithLimit sets the number of events allowed per window.
func WithLimit(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithWindow sets the sliding window length.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a limiter with the default 10 events per minute.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		events: make(map[string][]time.Time),
		limit:  DefaultEvents,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastGC = l.now()
	return l
}

// Allow records one event for key and reports whether it fits the window.
// A denied event is not recorded, so a throttled client does not extend its
// own penalty by retrying.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) >= gcInterval {
		l.gc(cutoff)
		l.lastGC = now
	}

	kept := l.events[key][:0]
	for _, t := range l.events[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.events[key] = kept
		metrics.RecordRateLimited()
		return false
	}

	l.events[key] = append(kept, now)
	return true
}

// Remaining reports how many events the key has left in the current window.
func (l *Limiter) Remaining(key string) int {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	live := 0
	for _, t := range l.events[key] {
		if t.After(cutoff) {
			live++
		}
	}
	if live >= l.limit {
		return 0
	}
	return l.limit - live
}

// gc drops keys with no live events. Caller holds the lock.
func (l *Limiter) gc(cutoff time.Time) {
	for key, ts := range l.events {
		live := false
		for _, t := range ts {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.events, key)
		}
	}
}
