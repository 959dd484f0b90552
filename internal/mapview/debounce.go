package mapview

import "time"

// Debouncer coalesces bursts of Trigger calls into a single call of fn,
// delay after the last trigger. All methods must run on the loop.
type Debouncer struct {
	loop  *Loop
	delay time.Duration
	fn    func()
	timer *Timer
}

// NewDebouncer creates a debouncer running fn on loop.
func NewDebouncer(loop *Loop, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{loop: loop, delay: delay, fn: fn}
}

// Trigger restarts the delay.
func (d *Debouncer) Trigger() {
	d.timer.Stop()
	d.timer = d.loop.After(d.delay, d.fn)
}

// Cancel drops a pending call.
func (d *Debouncer) Cancel() {
	d.timer.Stop()
	d.timer = nil
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	return d.timer.Pending()
}
