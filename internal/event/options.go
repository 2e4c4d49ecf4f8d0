package event

import (
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// DefaultMaxSubscribers is the per-channel subscriber count above which a
// leak warning is logged.
const DefaultMaxSubscribers = 10

// Option configures an Emitter.
type Option func(*emitterConfig)

// emitterConfig contains configuration for an emitter.
type emitterConfig struct {
	// name labels the emitter in logs and metrics.
	name string

	// logger receives subscriber failures and leak warnings.
	logger zerolog.Logger

	// clock drives timeouts and handler timing.
	clock clock.Clock

	// errorHandler is called for every subscriber failure.
	errorHandler ErrorHandler

	// maxSubscribers is the leak warning ceiling; zero disables it.
	maxSubscribers int

	// maxConcurrency bounds async handlers run by one PublishAsync; zero is unbounded.
	maxConcurrency int
}

func defaultEmitterConfig() emitterConfig {
	return emitterConfig{
		name:           "emitter",
		logger:         zerolog.Nop(),
		clock:          clock.New(),
		maxSubscribers: DefaultMaxSubscribers,
	}
}

// WithName sets the name used to label the emitter in logs and metrics.
func WithName(name string) Option {
	return func(c *emitterConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *emitterConfig) {
		c.logger = l
	}
}

// WithClock sets the clock used for timeouts and handler timing.
func WithClock(clk clock.Clock) Option {
	return func(c *emitterConfig) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithErrorHandler sets a callback for subscriber failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *emitterConfig) {
		c.errorHandler = h
	}
}

// WithMaxSubscribers sets the per-channel leak warning ceiling. Zero disables it.
func WithMaxSubscribers(n int) Option {
	return func(c *emitterConfig) {
		if n >= 0 {
			c.maxSubscribers = n
		}
	}
}

// WithMaxConcurrency bounds how many async handlers one PublishAsync keeps
// unsettled at once. The next async handler starts when a slot frees up.
func WithMaxConcurrency(n int) Option {
	return func(c *emitterConfig) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}
