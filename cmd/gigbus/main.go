// Package main runs the gigbus event bus with a short demo scenario.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/dshills/gigbus/internal/app"
	"github.com/dshills/gigbus/internal/config"
	"github.com/dshills/gigbus/internal/event"
	"github.com/dshills/gigbus/internal/event/events"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	serve      bool
	dump       bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, ok := parseFlags()
	if !ok {
		return 0
	}

	var (
		emitter *event.StoredEmitter
		cfg     config.Config
		logger  zerolog.Logger
	)
	application := fx.New(
		fx.NopLogger,
		app.Config(opts.configPath),
		app.Module(),
		fx.Invoke(registerMetricsServer),
		fx.Populate(&emitter, &cfg, &logger),
	)
	if err := application.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := application.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start: %v\n", err)
		return 1
	}

	code := 0
	if err := demo(context.Background(), emitter, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	}

	if opts.dump {
		if err := emitter.History().WriteJSON(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: dump history: %v\n", err)
			code = 1
		}
		fmt.Println()
	}

	if opts.serve && code == 0 {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		logger.Info().Msg("serving until interrupted")
		<-signals
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := application.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to stop: %v\n", err)
		return 1
	}
	return code
}

func parseFlags() (options, bool) {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.serve, "serve", false, "Keep running after the demo until interrupted")
	flag.BoolVar(&opts.dump, "dump", true, "Write the event history as JSON to stdout")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("gigbus %s (%s)\n", version, commit)
		return opts, false
	}
	return opts, true
}

// demo walks through a sync run the way the application would see it.
func demo(ctx context.Context, e *event.StoredEmitter, cfg config.Config, logger zerolog.Logger) error {
	if _, err := event.On(e, events.ChannelToast, func(_ context.Context, t events.Toast) error {
		logger.Info().Str("toast", string(t.Level)).Msg(t.Message)
		return nil
	}); err != nil {
		return err
	}

	if _, err := event.Once(e, events.ChannelSyncCompleted, func(_ context.Context, done events.SyncCompleted) error {
		logger.Info().Int("pushed", done.Pushed).Int("pulled", done.Pulled).Msg("first sync finished")
		return nil
	}); err != nil {
		return err
	}

	runID := "demo-1"
	if _, err := event.EmitStored(ctx, e, events.ChannelSyncStarted, events.SyncStarted{RunID: runID}); err != nil {
		return err
	}
	if _, err := event.EmitStored(ctx, e, events.ChannelNoteSaved, events.ItemSaved{
		Kind: events.KindNote, ID: "n1", Title: "Soundcheck at 6", Created: true,
	}); err != nil {
		return err
	}
	if _, err := event.EmitStored(ctx, e, events.ChannelSyncCompleted, events.SyncCompleted{RunID: runID, Pushed: 1}); err != nil {
		return err
	}

	err := event.EmitWithTimeout(ctx, e.Emitter, events.ChannelConnectivityChanged,
		events.ConnectivityChanged{Online: false}, cfg.Bus.PublishTimeout)
	if errors.Is(err, event.ErrPublishTimeout) {
		logger.Warn().Err(err).Msg("connectivity handlers still running")
		return nil
	}
	return err
}

type metricsServerParams struct {
	fx.In

	LC       fx.Lifecycle
	Config   config.Config
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

func registerMetricsServer(p metricsServerParams) {
	if !p.Config.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{Registry: p.Registry}))
	srv := &http.Server{
		Addr:              p.Config.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("metrics listen: %w", err)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error().Err(err).Msg("metrics server failed")
				}
			}()
			p.Logger.Info().Str("addr", ln.Addr().String()).Msg("metrics listening")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
