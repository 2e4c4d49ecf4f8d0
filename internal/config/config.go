package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/gigbus/internal/event"
	"github.com/dshills/gigbus/internal/event/history"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GIGBUS_"

// Config is the complete gigbus configuration.
type Config struct {
	Bus     BusConfig     `yaml:"bus"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// BusConfig configures the event bus.
type BusConfig struct {
	// MaxSubscribers is the per-channel leak warning ceiling; 0 disables it.
	MaxSubscribers int `yaml:"max_subscribers"`

	// HistorySize bounds the history log.
	HistorySize int `yaml:"history_size"`

	// PublishTimeout bounds waits for async handlers; 0 waits without bound.
	PublishTimeout time.Duration `yaml:"publish_timeout"`

	// MaxConcurrency bounds async handlers run by one publish; 0 is unbounded.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zerolog level name.
	Level string `yaml:"level"`

	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bus: BusConfig{
			MaxSubscribers: event.DefaultMaxSubscribers,
			HistorySize:    history.DefaultMaxEvents,
			PublishTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Addr: ":9191",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
// Keys absent from data keep their default value.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ParseError{Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the file at path, applies environment overrides and validates.
// An empty path loads the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &ParseError{Path: path, Err: err}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type envSetter func(c *Config, v string) error

// envMapping maps environment variable suffixes to the setting they override.
var envMapping = map[string]envSetter{
	"BUS_MAX_SUBSCRIBERS": func(c *Config, v string) error { return setInt(&c.Bus.MaxSubscribers, v) },
	"BUS_HISTORY_SIZE":    func(c *Config, v string) error { return setInt(&c.Bus.HistorySize, v) },
	"BUS_PUBLISH_TIMEOUT": func(c *Config, v string) error { return setDuration(&c.Bus.PublishTimeout, v) },
	"BUS_MAX_CONCURRENCY": func(c *Config, v string) error { return setInt(&c.Bus.MaxConcurrency, v) },
	"LOG_LEVEL":           func(c *Config, v string) error { c.Log.Level = v; return nil },
	"LOG_FORMAT":          func(c *Config, v string) error { c.Log.Format = v; return nil },
	"METRICS_ENABLED":     func(c *Config, v string) error { return setBool(&c.Metrics.Enabled, v) },
	"METRICS_ADDR":        func(c *Config, v string) error { c.Metrics.Addr = v; return nil },
}

// ApplyEnv overrides settings from GIGBUS_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for suffix, set := range envMapping {
		name := EnvPrefix + suffix
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(c, strings.TrimSpace(v)); err != nil {
			return &ParseError{Path: "$" + name, Err: err}
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// Validate checks every setting and reports all failures at once.
func (c Config) Validate() error {
	var errs ValidationErrors

	if c.Bus.MaxSubscribers < 0 {
		errs = append(errs, &ValidationError{Path: "bus.max_subscribers", Message: "must not be negative", Value: c.Bus.MaxSubscribers})
	}
	if c.Bus.HistorySize <= 0 {
		errs = append(errs, &ValidationError{Path: "bus.history_size", Message: "must be positive", Value: c.Bus.HistorySize})
	}
	if c.Bus.PublishTimeout < 0 {
		errs = append(errs, &ValidationError{Path: "bus.publish_timeout", Message: "must not be negative", Value: c.Bus.PublishTimeout})
	}
	if c.Bus.MaxConcurrency < 0 {
		errs = append(errs, &ValidationError{Path: "bus.max_concurrency", Message: "must not be negative", Value: c.Bus.MaxConcurrency})
	}

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, &ValidationError{Path: "log.level", Message: "unknown level", Value: c.Log.Level})
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, &ValidationError{Path: "log.format", Message: `must be "json" or "console"`, Value: c.Log.Format})
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, &ValidationError{Path: "metrics.addr", Message: "required when metrics are enabled", Value: c.Metrics.Addr})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
