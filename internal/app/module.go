// Package app composes the gigbus runtime with fx.
package app

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/dshills/gigbus/internal/config"
	"github.com/dshills/gigbus/internal/event"
	"github.com/dshills/gigbus/internal/event/history"
	"github.com/dshills/gigbus/internal/event/metrics"
	"github.com/dshills/gigbus/internal/log"
)

// EmitterName names the application bus in logs and metrics.
const EmitterName = "gigbus"

// LogOutput overrides where the root logger writes. It is optional.
type LogOutput io.Writer

// Config returns an option providing the configuration loaded from path.
func Config(path string) fx.Option {
	return fx.Provide(func() (config.Config, error) {
		return config.Load(path)
	})
}

// Module returns the fx module wiring the bus. It requires a config.Config.
func Module() fx.Option {
	return fx.Module("gigbus",
		fx.Provide(
			ProvideLogger,
			ProvideRegistry,
			ProvideHistory,
			ProvideEmitter,
			ProvideToasts,
		),
		fx.Invoke(registerMetrics),
		fx.Invoke(registerLifecycle),
	)
}

type loggerParams struct {
	fx.In

	Config config.Config
	Output LogOutput `optional:"true"`
}

// ProvideLogger builds the root logger.
func ProvideLogger(p loggerParams) zerolog.Logger {
	return log.New(log.Config{
		Level:   p.Config.Log.Level,
		Format:  p.Config.Log.Format,
		Output:  p.Output,
		Service: EmitterName,
	})
}

// ProvideRegistry creates the Prometheus registry with the Go runtime collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideHistory creates the history store sized from config.
func ProvideHistory(cfg config.Config) *history.Store {
	return history.New(history.WithMaxEvents(cfg.Bus.HistorySize))
}

// ProvideEmitter creates the application bus.
func ProvideEmitter(cfg config.Config, logger zerolog.Logger, store *history.Store) *event.StoredEmitter {
	return event.NewStoredEmitter(store,
		event.WithName(EmitterName),
		event.WithLogger(log.WithComponent(logger, "bus")),
		event.WithMaxSubscribers(cfg.Bus.MaxSubscribers),
		event.WithMaxConcurrency(cfg.Bus.MaxConcurrency),
	)
}

type metricsParams struct {
	fx.In

	Registry *prometheus.Registry
	Emitter  *event.StoredEmitter
}

func registerMetrics(p metricsParams) error {
	if err := metrics.Register(p.Registry, p.Emitter); err != nil {
		return err
	}
	return metrics.RegisterHistory(p.Registry, p.Emitter.Name(), p.Emitter.History())
}

type lifecycleParams struct {
	fx.In

	LC      fx.Lifecycle
	Logger  zerolog.Logger
	Emitter *event.StoredEmitter
	Toasts  *Toasts
}

func registerLifecycle(p lifecycleParams) {
	logger := log.WithComponent(p.Logger, "app")

	p.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := p.Toasts.Start(); err != nil {
				return err
			}
			logger.Info().Str("emitter", p.Emitter.Name()).Msg("event bus started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Toasts.Stop()

			drained := make(chan struct{})
			go func() {
				p.Emitter.Wait()
				close(drained)
			}()

			select {
			case <-drained:
			case <-ctx.Done():
				logger.Warn().Msg("stopped before background handlers drained")
				return ctx.Err()
			}

			stats := p.Emitter.Stats()
			logger.Info().
				Uint64("published", stats.EventsPublished).
				Uint64("handler_errors", stats.HandlerErrors).
				Int("history", p.Emitter.History().Len()).
				Msg("event bus stopped")
			return nil
		},
	})
}
