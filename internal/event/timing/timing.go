// Package timing provides debounce and throttle primitives for wrapping
// event handlers.
//
// Both take their time from an injected clock so tests can drive them with a
// mock.
package timing

import (
	"github.com/benbjohnson/clock"
)

// Option configures a Debouncer or Throttler.
type Option func(*options)

type options struct {
	clock clock.Clock
}

func buildOptions(opts []Option) options {
	o := options{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock sets the clock. A nil clock is ignored.
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		if clk != nil {
			o.clock = clk
		}
	}
}
