package event

import (
	"context"

	"github.com/dshills/gigbus/internal/event/channel"
	"github.com/dshills/gigbus/internal/event/middleware"
)

// MiddlewareEmitter is an Emitter with a middleware pipeline in front of
// its async publish.
type MiddlewareEmitter struct {
	*Emitter
	pipeline *middleware.Pipeline
}

// NewMiddlewareEmitter creates an emitter with an empty pipeline.
func NewMiddlewareEmitter(opts ...Option) *MiddlewareEmitter {
	return &MiddlewareEmitter{
		Emitter:  NewEmitter(opts...),
		pipeline: middleware.New(),
	}
}

// Use appends middleware to the pipeline.
func (m *MiddlewareEmitter) Use(mw ...middleware.Func) {
	m.pipeline.Use(mw...)
}

// Pipeline returns the emitter's pipeline.
func (m *MiddlewareEmitter) Pipeline() *middleware.Pipeline {
	return m.pipeline
}

// EmitWithMiddleware runs payload through the pipeline and publishes what
// comes out with PublishAsync. A middleware that does not continue the chain
// drops the publish and EmitWithMiddleware returns nil. Middleware errors
// are returned; subscriber failures are not.
func (m *MiddlewareEmitter) EmitWithMiddleware(ctx context.Context, name channel.Name, payload any) error {
	return m.pipeline.Process(ctx, name, payload, m.terminal)
}

func (m *MiddlewareEmitter) terminal(ctx context.Context, name channel.Name, payload any) error {
	return m.PublishAsync(ctx, name, payload)
}
