// Package log builds the zerolog loggers used across gigbus.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultService is attached to every entry when Config.Service is empty.
const DefaultService = "gigbus"

// Config captures options for building a logger.
type Config struct {
	Level   string    // log level ("debug", "info", etc.); unknown values fall back to info
	Format  string    // "console" for human output, anything else is JSON
	Output  io.Writer // defaults to os.Stderr
	Service string    // service name attached to every entry
}

// New builds a root logger from cfg.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen, NoColor: true}
	}

	service := cfg.Service
	if service == "" {
		service = DefaultService
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
