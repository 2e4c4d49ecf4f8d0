package timing

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Debouncer groups rapid successive calls into one trailing call.
//
// Each Call restarts the quiet period; when delay passes with no further
// call, fn runs once with the argument of the last call. fn is never run
// concurrently with itself by the debouncer.
type Debouncer[T any] struct {
	mu      sync.Mutex
	run     sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	timer   *clock.Timer
	pending bool
	arg     T
	seq     uint64 // detects stale timer callbacks
	fn      func(T)
}

// NewDebouncer creates a debouncer that calls fn after delay of quiet.
func NewDebouncer[T any](delay time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	o := buildOptions(opts)
	return &Debouncer[T]{
		clock: o.clock,
		delay: delay,
		fn:    fn,
	}
}

// Call records arg and restarts the quiet period.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.arg = arg
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(currentSeq)
	})
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if !d.pending || d.seq != seq || d.fn == nil {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	arg := d.arg
	d.mu.Unlock()

	d.run.Lock()
	defer d.run.Unlock()
	d.fn(arg)
}

// Flush runs a pending call immediately, cancelling its timer.
// It reports whether there was a pending call.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++

	if !d.pending || d.fn == nil {
		d.mu.Unlock()
		return false
	}
	d.pending = false
	arg := d.arg
	d.mu.Unlock()

	d.run.Lock()
	defer d.run.Unlock()
	d.fn(arg)
	return true
}

// Cancel drops any pending call.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
	var zero T
	d.arg = zero
}

// IsPending returns true if a call is waiting for its quiet period.
func (d *Debouncer[T]) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Debounce returns fn wrapped in a new Debouncer.
func Debounce[T any](fn func(T), delay time.Duration, opts ...Option) func(T) {
	return NewDebouncer(delay, fn, opts...).Call
}
