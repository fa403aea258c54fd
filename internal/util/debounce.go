package util

import (
	"sync"
	"time"
)

// Debounced wraps a function so that rapid call bursts collapse into a
// single trailing-edge invocation. It is independent of any UI binding.
type Debounced struct {
	mu     sync.Mutex
	window time.Duration
	fn     func()
	timer  *time.Timer
}

// Debounce returns a trailing-edge debouncer for fn: each Call resets the
// window, and fn runs once, window after the last Call. fn executes on a
// timer goroutine; it must do its own synchronization if it touches shared
// state.
func Debounce(fn func(), window time.Duration) *Debounced {
	return &Debounced{window: window, fn: fn}
}

// Call schedules (or reschedules) the trailing invocation.
func (d *Debounced) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fn)
}

// Cancel drops any pending invocation. A Call after Cancel schedules anew.
func (d *Debounced) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Flush runs the pending invocation immediately, if one is scheduled.
func (d *Debounced) Flush() {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()
	if pending {
		d.fn()
	}
}
