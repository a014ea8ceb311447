package persist

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of scheduled work into a single execution once
// a quiet interval has elapsed. Scheduling again within the window replaces
// the pending work and restarts the timer, so only the latest state runs.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	pending  func()
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Schedule queues fn to run after the quiet interval, replacing any pending
// work.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = fn
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Flush runs any pending work immediately instead of waiting out the timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Cancel drops any pending work. Callers about to perform an immediate
// write must cancel first so a stale debounced write cannot land after a
// newer immediate one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
