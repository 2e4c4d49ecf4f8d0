// Package aggregate republishes the events of several independent emitters
// onto one combined emitter.
//
// Forwarding is wired per channel when a source is attached: the channels a
// source has subscriptions on at that moment are forwarded, channels it gains
// later are not.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/gigbus/internal/event"
	"github.com/dshills/gigbus/internal/event/channel"
)

var (
	// ErrNilSource is returned when attaching a nil source.
	ErrNilSource = errors.New("aggregate: nil source")

	// ErrSelfSource is returned when an aggregator is attached to itself.
	ErrSelfSource = errors.New("aggregate: aggregator cannot be its own source")

	// ErrSourceExists is returned when a source is attached twice.
	ErrSourceExists = errors.New("aggregate: source already attached")
)

// Remap renames source channels on the aggregator. Channels not in the map
// keep their name.
type Remap map[channel.Name]channel.Name

type source struct {
	src        event.Source
	forwarders *event.Subscriber
}

// Aggregator is an emitter fed by the sources attached to it. Its own
// subscribers see every forwarded event.
type Aggregator struct {
	*event.Emitter

	mu      sync.Mutex
	sources map[event.Source]*source
	order   []event.Source
}

// New creates an aggregator with no sources.
func New(opts ...event.Option) *Aggregator {
	return &Aggregator{
		Emitter: event.NewEmitter(opts...),
		sources: make(map[event.Source]*source),
	}
}

// AddSource forwards every channel src currently has subscriptions on,
// renamed through remap. remap may be nil.
func (a *Aggregator) AddSource(src event.Source, remap Remap) error {
	if src == nil {
		return ErrNilSource
	}
	if a.isSelf(src) {
		return ErrSelfSource
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.sources[src]; exists {
		return ErrSourceExists
	}

	s := &source{src: src, forwarders: event.NewSubscriber(src)}
	for _, name := range src.ChannelNames() {
		target := name
		if renamed, ok := remap[name]; ok {
			target = renamed
		}
		if !target.IsValid() {
			s.forwarders.UnsubscribeAll()
			return fmt.Errorf("remap %s to %q: %w", name, target, event.ErrInvalidChannel)
		}

		if _, err := s.forwarders.Subscribe(name, a.forward(target)); err != nil {
			s.forwarders.UnsubscribeAll()
			return fmt.Errorf("forward %s: %w", name, err)
		}
	}

	a.sources[src] = s
	a.order = append(a.order, src)

	logger := a.Logger()
	logger.Debug().
		Int("channels", s.forwarders.Count()).
		Msg("aggregate source attached")
	return nil
}

func (a *Aggregator) forward(target channel.Name) event.Handler {
	return event.HandlerFunc(func(ctx context.Context, payload any) error {
		a.Publish(ctx, target, payload)
		return nil
	})
}

func (a *Aggregator) isSelf(src event.Source) bool {
	switch s := src.(type) {
	case *Aggregator:
		return s == a
	case *event.Emitter:
		return s == a.Emitter
	}
	return false
}

// RemoveSource detaches src. Its forwarders are removed and, since the
// aggregator owns the listener set of an attached source, every other
// subscription on src is cleared too. It reports whether src was attached.
func (a *Aggregator) RemoveSource(src event.Source) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.removeLocked(src)
}

func (a *Aggregator) removeLocked(src event.Source) bool {
	s, ok := a.sources[src]
	if !ok {
		return false
	}

	s.forwarders.UnsubscribeAll()
	s.src.RemoveAll()

	delete(a.sources, src)
	for i, attached := range a.order {
		if attached == src {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// RemoveAllSources detaches every source.
func (a *Aggregator) RemoveAllSources() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for len(a.order) > 0 {
		a.removeLocked(a.order[0])
	}
}

// Sources returns the number of attached sources.
func (a *Aggregator) Sources() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sources)
}

// Combine returns a new aggregator with each emitter attached without
// remapping. Nil and repeated emitters are skipped.
func Combine(emitters ...event.Source) *Aggregator {
	a := New(event.WithName("combined"))
	for _, src := range emitters {
		if err := a.AddSource(src, nil); err != nil {
			logger := a.Logger()
			logger.Debug().Err(err).Msg("combine skipped source")
		}
	}
	return a
}
