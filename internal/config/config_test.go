package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Bus.MaxSubscribers)
	assert.Equal(t, 1000, cfg.Bus.HistorySize)
	assert.Equal(t, 5*time.Second, cfg.Bus.PublishTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
bus:
  max_subscribers: 0
  publish_timeout: 250ms
log:
  format: console
`))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Bus.MaxSubscribers)
	assert.Equal(t, 250*time.Millisecond, cfg.Bus.PublishTimeout)
	assert.Equal(t, "console", cfg.Log.Format)
	// untouched keys keep their defaults
	assert.Equal(t, 1000, cfg.Bus.HistorySize)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("bus: [unclosed"))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	cfg := Default()
	cfg.Bus.HistorySize = 0
	cfg.Bus.MaxSubscribers = -1
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = ""

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrValidationFailed)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	paths := make([]string, len(verrs))
	for i, v := range verrs {
		paths[i] = v.Path
	}
	assert.ElementsMatch(t, []string{
		"bus.history_size",
		"bus.max_subscribers",
		"log.level",
		"log.format",
		"metrics.addr",
	}, paths)
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().Bus, cfg.Bus)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gigbus.yaml")
		require.NoError(t, os.WriteFile(path, []byte("bus:\n  history_size: 42\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 42, cfg.Bus.HistorySize)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gigbus.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
		t.Setenv("GIGBUS_LOG_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GIGBUS_BUS_MAX_SUBSCRIBERS": "3",
		"GIGBUS_BUS_PUBLISH_TIMEOUT": "1s",
		"GIGBUS_METRICS_ENABLED":     "true",
		"GIGBUS_METRICS_ADDR":        " :8080 ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, 3, cfg.Bus.MaxSubscribers)
	assert.Equal(t, time.Second, cfg.Bus.PublishTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":8080", cfg.Metrics.Addr)
}

func TestApplyEnv_BadValue(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "GIGBUS_BUS_HISTORY_SIZE" {
			return "lots", true
		}
		return "", false
	}

	cfg := Default()
	err := cfg.ApplyEnv(lookup)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "$GIGBUS_BUS_HISTORY_SIZE", perr.Path)
}
