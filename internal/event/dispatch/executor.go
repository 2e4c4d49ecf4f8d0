package dispatch

import (
	"context"
	"runtime/debug"

	"github.com/benbjohnson/clock"
)

// Executor runs handlers one at a time, turning panics and errors into a
// Result so the caller never unwinds.
type Executor struct {
	onPanic func(p Panic)
	clock   clock.Clock
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPanicObserver is called with every recovered panic before Execute
// returns. A panic inside fn is swallowed.
func WithPanicObserver(fn func(p Panic)) ExecutorOption {
	return func(e *Executor) {
		e.onPanic = fn
	}
}

// WithExecutorClock sets the clock used to time handler runs.
func WithExecutorClock(c clock.Clock) ExecutorOption {
	return func(e *Executor) {
		if c != nil {
			e.clock = c
		}
	}
}

// NewExecutor creates an executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{clock: clock.New()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs handler with payload. A context that is already done skips
// the handler.
func (e *Executor) Execute(ctx context.Context, payload any, handler Handler) (result Result) {
	if err := ctx.Err(); err != nil {
		return Result{Outcome: OutcomeSkipped, Err: err}
	}

	start := e.clock.Now()
	defer func() {
		result.Duration = e.clock.Since(start)

		r := recover()
		if r == nil {
			return
		}
		p := &Panic{Value: r, Stack: debug.Stack()}
		result.Outcome = OutcomePanic
		result.Err = nil
		result.Panic = p
		e.observe(*p)
	}()

	if err := handler.Handle(ctx, payload); err != nil {
		return Result{Outcome: OutcomeError, Err: err}
	}
	return Result{Outcome: OutcomeOK}
}

func (e *Executor) observe(p Panic) {
	if e.onPanic == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	e.onPanic(p)
}
