// Package middleware provides an ordered chain of interceptors that run
// before a payload is delivered.
//
// Each middleware receives the channel name, the current payload and a Next
// continuation. Calling next(ctx, p) hands p to the following middleware, or
// to the terminal at the end of the chain; next(ctx, nil) hands on the payload
// the middleware received. A middleware that returns without
// calling next drops the publish; that is a valid filtering outcome, not an
// error.
package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dshills/gigbus/internal/event/channel"
)

// ErrNextCalledTwice is returned when a middleware continues the chain more
// than once for a single publish.
var ErrNextCalledTwice = errors.New("middleware: next called more than once")

// Next continues the chain with payload. A nil payload keeps the current one.
type Next func(ctx context.Context, payload any) error

// Func intercepts one publish on the named channel.
type Func func(ctx context.Context, name channel.Name, payload any, next Next) error

// Terminal receives the payload that survives the chain.
type Terminal func(ctx context.Context, name channel.Name, payload any) error

// Pipeline is an ordered middleware chain. Registration order is run order.
// It is safe for concurrent use; Process runs on a snapshot of the chain.
type Pipeline struct {
	mu    sync.RWMutex
	chain []Func
}

// New creates a pipeline with the given middleware.
func New(mw ...Func) *Pipeline {
	p := &Pipeline{}
	p.Use(mw...)
	return p
}

// Use appends middleware to the chain. Nil entries are ignored.
func (p *Pipeline) Use(mw ...Func) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, m := range mw {
		if m != nil {
			p.chain = append(p.chain, m)
		}
	}
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.chain)
}

// Process runs payload through the chain and then through terminal.
// The terminal sees the last payload passed to next, which is the original
// payload unless a middleware substituted one. Passing nil to next keeps the
// current payload, so a nil payload never reaches the terminal unless
// Process was given one. The first error returned by a
// middleware or the terminal is returned to the caller.
func (p *Pipeline) Process(ctx context.Context, name channel.Name, payload any, terminal Terminal) error {
	p.mu.RLock()
	chain := make([]Func, len(p.chain))
	copy(chain, p.chain)
	p.mu.RUnlock()

	return run(ctx, chain, name, payload, terminal)
}

func run(ctx context.Context, chain []Func, name channel.Name, payload any, terminal Terminal) error {
	if len(chain) == 0 {
		if terminal == nil {
			return nil
		}
		return terminal(ctx, name, payload)
	}

	var called atomic.Bool
	next := func(ctx context.Context, p any) error {
		if !called.CompareAndSwap(false, true) {
			return ErrNextCalledTwice
		}
		if p == nil {
			p = payload
		}
		return run(ctx, chain[1:], name, p, terminal)
	}
	return chain[0](ctx, name, payload, next)
}
