package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
)

// Join waits for a set of concurrent operations to settle.
// Every operation runs to completion and every failure is kept; the wait is
// never cut short by one of them failing.
type Join struct {
	pool    *pool.ErrorPool
	slots   chan struct{}
	started atomic.Int64
}

// NewJoin creates a join. max bounds how many operations are unsettled at
// once; zero or less means unbounded.
func NewJoin(max int) *Join {
	j := &Join{pool: pool.New().WithErrors()}
	if max > 0 {
		j.slots = make(chan struct{}, max)
	}
	return j
}

// Go runs fn in its own goroutine as part of the join, blocking first while
// the join is full.
func (j *Join) Go(fn func() error) {
	if j.slots != nil {
		j.slots <- struct{}{}
	}
	j.track(fn)
}

// Start calls start on the calling goroutine once the join has room. The
// function start returns is the wait for what it began and becomes part of
// the join; a nil wait frees the slot at once. Start returns ctx.Err()
// without calling start if ctx is done while the join is full.
func (j *Join) Start(ctx context.Context, start func() func() error) error {
	if j.slots != nil {
		select {
		case j.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	wait := start()
	if wait == nil {
		j.release()
		return nil
	}
	j.track(wait)
	return nil
}

func (j *Join) track(fn func() error) {
	j.started.Add(1)
	j.pool.Go(func() error {
		defer j.release()
		return fn()
	})
}

func (j *Join) release() {
	if j.slots != nil {
		<-j.slots
	}
}

// Len returns the number of operations tracked.
func (j *Join) Len() int {
	return int(j.started.Load())
}

// Wait blocks until every operation has settled and returns their failures
// joined into one error, or nil if all succeeded.
// Wait must be called exactly once.
func (j *Join) Wait() error {
	return j.pool.Wait()
}

// WaitContext is Wait bounded by ctx. If ctx is done first it returns ctx.Err()
// while the operations keep running; their failures are then discarded.
func (j *Join) WaitContext(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- j.pool.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
