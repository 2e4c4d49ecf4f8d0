package timing

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

// Throttler runs fn on the leading edge at most once per interval.
// A call arriving before interval has elapsed since the last run is dropped,
// not queued.
type Throttler[T any] struct {
	mu       sync.Mutex
	clock    clock.Clock
	interval time.Duration
	limiter  *rate.Limiter
	fn       func(T)
	dropped  atomic.Uint64
}

// NewThrottler creates a throttler for fn. A non-positive interval never
// drops.
func NewThrottler[T any](interval time.Duration, fn func(T), opts ...Option) *Throttler[T] {
	o := buildOptions(opts)
	return &Throttler[T]{
		clock:    o.clock,
		interval: interval,
		limiter:  newLimiter(interval),
		fn:       fn,
	}
}

func newLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Call runs fn with arg if the interval has elapsed since the last run and
// reports whether it did.
func (t *Throttler[T]) Call(arg T) bool {
	t.mu.Lock()
	allowed := t.limiter.AllowN(t.clock.Now(), 1)
	t.mu.Unlock()

	if !allowed {
		t.dropped.Add(1)
		return false
	}
	if t.fn != nil {
		t.fn(arg)
	}
	return true
}

// Dropped returns how many calls were dropped.
func (t *Throttler[T]) Dropped() uint64 {
	return t.dropped.Load()
}

// Reset forgets the last run so the next call fires.
func (t *Throttler[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limiter = newLimiter(t.interval)
}

// Throttle returns fn wrapped in a new Throttler.
func Throttle[T any](fn func(T), interval time.Duration, opts ...Option) func(T) {
	th := NewThrottler(interval, fn, opts...)
	return func(arg T) {
		th.Call(arg)
	}
}
