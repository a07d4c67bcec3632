package refresh

import (
	"sync"
	"time"
)

// Point is the argument tuple a debounced refresh runs with.
type Point struct {
	Lat float64
	Lon float64
}

// Debouncer coalesces rapid successive Trigger calls into one execution of
// fn after a quiet window (trailing-edge debounce). Every call inside the
// window cancels the pending execution and restarts the window with the new
// arguments, so at most one execution happens per quiet period and it always
// uses the most recent arguments. Intermediate calls are never queued.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func(Point)
	timer   *time.Timer
	pending Point
	stopped bool
}

// NewDebouncer creates a Debouncer running fn after window of quiet.
func NewDebouncer(window time.Duration, fn func(Point)) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules an execution with p after the quiet window, cancelling
// any execution already pending.
func (d *Debouncer) Trigger(p Point) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = p
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	p := d.pending
	d.mu.Unlock()

	// Run outside the lock so fn may Trigger again.
	d.fn(p)
}

// Stop cancels any pending execution and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
