// Package debounce coalesces bursts of requests into a single deferred call.
package debounce

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer owns at most one pending deferred call to fn.
//
// Run (re)schedules the call delay after the most recent request, Flush runs
// it immediately, and Cancel discards it. After Flush or Cancel return, no
// call scheduled before them will fire.
type Debouncer struct {
	fn    func()
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64

	// runMu serialises executions of fn and lets Cancel wait out a call
	// that already started.
	runMu sync.Mutex
}

// New returns a Debouncer that calls fn delay after the last Run.
func New(fn func(), delay time.Duration) *Debouncer {
	return &Debouncer{fn: fn, delay: delay}
}

// Run schedules fn, replacing any call that is still pending.
func (d *Debouncer) Run() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a deferred call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush drops the pending call, if any, and runs fn synchronously.
func (d *Debouncer) Flush() {
	d.discard()
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.call()
}

// Cancel drops the pending call without running it. If a deferred call is
// already executing, Cancel waits for it to return.
func (d *Debouncer) Cancel() {
	d.discard()
	// Wait for a call already in progress.
	d.runMu.Lock()
	d.runMu.Unlock()
}

func (d *Debouncer) discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.call()
}

func (d *Debouncer) call() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("debounced call panicked", "panic", r)
		}
	}()
	d.fn()
}
