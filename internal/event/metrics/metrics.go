// Package metrics exports event bus statistics to Prometheus.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dshills/gigbus/internal/event"
	"github.com/dshills/gigbus/internal/event/history"
)

const namespace = "gigbus"

// StatsSource is implemented by every emitter.
type StatsSource interface {
	Name() string
	Stats() event.Stats
}

// Register exports the counters and gauges of src, labelled with its name.
// Values are read from src on every scrape.
func Register(reg prometheus.Registerer, src StatsSource) error {
	labels := prometheus.Labels{"emitter": src.Name()}

	counter := func(name, help string, read func(event.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "emitter",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 {
			return float64(read(src.Stats()))
		})
	}
	gauge := func(name, help string, read func(event.Stats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "emitter",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 {
			return float64(read(src.Stats()))
		})
	}

	collectors := []prometheus.Collector{
		counter("events_published_total", "Total number of publish calls.",
			func(s event.Stats) uint64 { return s.EventsPublished }),
		counter("events_undelivered_total", "Publishes that found no subscriber.",
			func(s event.Stats) uint64 { return s.EventsUndelivered }),
		counter("handlers_executed_total", "Handler executions.",
			func(s event.Stats) uint64 { return s.HandlersExecuted }),
		counter("handler_errors_total", "Handlers that returned an error.",
			func(s event.Stats) uint64 { return s.HandlerErrors }),
		counter("handler_panics_total", "Handlers that panicked.",
			func(s event.Stats) uint64 { return s.HandlerPanics }),
		counter("handlers_skipped_total", "Handlers not run because the context was done.",
			func(s event.Stats) uint64 { return s.HandlersSkipped }),
		counter("leak_warnings_total", "Channels that crossed the subscriber ceiling.",
			func(s event.Stats) uint64 { return s.LeakWarnings }),
		counter("timeouts_total", "Bounded publishes and waits that timed out.",
			func(s event.Stats) uint64 { return s.Timeouts }),
		gauge("subscribers", "Registered subscriptions.",
			func(s event.Stats) int { return s.ActiveSubscribers }),
		gauge("channels", "Channels with at least one subscription.",
			func(s event.Stats) int { return s.Channels }),
	}

	return registerAll(reg, collectors)
}

// RegisterHistory exports the size and evictions of a history store.
func RegisterHistory(reg prometheus.Registerer, name string, store *history.Store) error {
	labels := prometheus.Labels{"emitter": name}

	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "history",
			Name:        "records",
			Help:        "Records held in the history log.",
			ConstLabels: labels,
		}, func() float64 { return float64(store.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "history",
			Name:        "max_records",
			Help:        "Bound of the history log.",
			ConstLabels: labels,
		}, func() float64 { return float64(store.MaxEvents()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "history",
			Name:        "evicted_total",
			Help:        "Records dropped by the history bound.",
			ConstLabels: labels,
		}, func() float64 { return float64(store.Evicted()) }),
	}

	return registerAll(reg, collectors)
}

func registerAll(reg prometheus.Registerer, collectors []prometheus.Collector) error {
	var err error
	for _, c := range collectors {
		err = multierr.Append(err, reg.Register(c))
	}
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	return nil
}
