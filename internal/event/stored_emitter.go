package event

import (
	"context"
	"fmt"

	"github.com/dshills/gigbus/internal/event/channel"
	"github.com/dshills/gigbus/internal/event/history"
)

// StoredEmitter records every emit in a history store before running the
// middleware pipeline, so history holds what was asked to be published
// rather than what subscribers finally saw.
type StoredEmitter struct {
	*MiddlewareEmitter
	store *history.Store
}

// NewStoredEmitter creates a stored emitter. A nil store gets a default
// store on the emitter's clock.
func NewStoredEmitter(store *history.Store, opts ...Option) *StoredEmitter {
	m := NewMiddlewareEmitter(opts...)
	if store == nil {
		store = history.New(history.WithClock(m.Clock()))
	}
	return &StoredEmitter{
		MiddlewareEmitter: m,
		store:             store,
	}
}

// History returns the emitter's history store.
func (s *StoredEmitter) History() *history.Store {
	return s.store
}

// EmitAndStore stores the raw payload and then emits it through the
// middleware pipeline. The record is returned even when the pipeline fails.
func (s *StoredEmitter) EmitAndStore(ctx context.Context, name channel.Name, payload any) (history.Record, error) {
	rec := s.store.Store(name, payload)
	if err := s.EmitWithMiddleware(ctx, name, payload); err != nil {
		return rec, err
	}
	return rec, nil
}

// EmitStored is EmitAndStore on a typed channel.
func EmitStored[T any](ctx context.Context, s *StoredEmitter, ch channel.Of[T], payload T) (history.Record, error) {
	return s.EmitAndStore(ctx, ch.Name(), payload)
}

// Replay emits records through the middleware pipeline again without
// storing them, marking each record processed once its emit succeeds.
// It stops at the first failing record.
func (s *StoredEmitter) Replay(ctx context.Context, records []history.Record) error {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.EmitWithMiddleware(ctx, rec.Channel, rec.Payload); err != nil {
			return fmt.Errorf("replay %s: %w", rec.ID, err)
		}
		s.store.MarkProcessed(rec.ID)
	}
	return nil
}

// ReplayUnprocessed replays every record not yet marked processed.
func (s *StoredEmitter) ReplayUnprocessed(ctx context.Context) error {
	return s.Replay(ctx, s.store.Unprocessed())
}
