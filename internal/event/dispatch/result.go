package dispatch

import (
	"context"
	"fmt"
	"time"
)

// Handler is what the executor runs. event.Handler satisfies it.
type Handler interface {
	Handle(ctx context.Context, payload any) error
}

// Outcome classifies how a handler run ended.
type Outcome uint8

const (
	// OutcomeOK means the handler returned nil.
	OutcomeOK Outcome = iota
	// OutcomeError means the handler returned an error.
	OutcomeError
	// OutcomePanic means the handler panicked and was recovered.
	OutcomePanic
	// OutcomeSkipped means the handler never ran because the context was done.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeError:
		return "error"
	case OutcomePanic:
		return "panic"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Panic is a recovered handler panic.
type Panic struct {
	Value any
	Stack []byte
}

// Result is the outcome of one handler run.
type Result struct {
	Outcome Outcome

	// Err is the handler's error, or the context error for a skipped run.
	Err error

	// Panic is set when Outcome is OutcomePanic.
	Panic *Panic

	// Duration is how long the handler ran; zero when skipped.
	Duration time.Duration
}

// Failed reports whether the handler returned an error or panicked.
func (r Result) Failed() bool {
	return r.Outcome == OutcomeError || r.Outcome == OutcomePanic
}

// Error returns the failure carried by the result as an error, or nil when
// the handler did not fail.
func (r Result) Error() error {
	switch r.Outcome {
	case OutcomePanic:
		return fmt.Errorf("handler panic: %v", r.Panic.Value)
	case OutcomeError:
		return r.Err
	default:
		return nil
	}
}
