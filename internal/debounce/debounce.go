// Package debounce provides the pending-write timer used by the persistence
// collaborator: a small state machine that is either idle or holds exactly
// one pending firing, with deterministic cancel-and-restart semantics.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces triggers into one deferred call of fn. Every Trigger
// cancels a pending firing and restarts the window, so only the last trigger
// inside a window fires. A Debouncer is scoped to its owner instance; two
// debouncers never interfere.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	pending *time.Timer
}

// New creates a Debouncer calling fn after delay. A non-positive delay makes
// Trigger call fn synchronously.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn after the configured delay, cancelling any pending
// firing first so at most one firing is scheduled at a time.
func (d *Debouncer) Trigger() {
	if d.delay <= 0 {
		d.fn()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Stop cancels a pending firing, if any, and reports whether one was
// cancelled before it could run.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return false
	}
	stopped := d.pending.Stop()
	d.pending = nil
	return stopped
}

// Flush runs fn immediately if a firing was pending, releasing the timer
// first so the deferred firing never duplicates the flushed one.
func (d *Debouncer) Flush() {
	if d.Stop() {
		d.fn()
	}
}
