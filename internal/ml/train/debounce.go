package train

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the minimum gap between debounced training runs.
const DefaultQuietPeriod = 5 * time.Minute

// Debouncer collapses bursts of pokes into at most one callback per quiet
// period. The first poke arms a timer; pokes while it is armed coalesce into
// the single pending callback. A steady stream of new samples therefore
// fires once per period instead of deferring the run indefinitely.
type Debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	quiet   time.Duration
	fn      func()
	armed   bool
	stopped bool
}

// NewDebouncer creates a debouncer invoking fn at most once per quiet period.
func NewDebouncer(quiet time.Duration, fn func()) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{quiet: quiet, fn: fn}
}

// Poke requests a callback. A no-op while one is already pending.
func (d *Debouncer) Poke() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.armed {
		return
	}
	d.armed = true
	d.timer = time.AfterFunc(d.quiet, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.armed = false
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending callback. Pokes after Stop are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
