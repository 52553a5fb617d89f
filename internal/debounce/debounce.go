// Package debounce coalesces bursts of triggers into a single delayed
// call. Used to fold rapid read-cursor movement into one channelUnread
// broadcast instead of one per keystroke.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once after delay has elapsed without another
// Trigger. Each Trigger restarts the clock.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a stopped debouncer. fn runs on a timer goroutine.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn after the delay, cancelling any pending run.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels any pending run. It does not wait for a run already in
// flight.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Flush runs fn immediately if a run is pending, cancelling the timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()
	if pending {
		d.fn()
	}
}
