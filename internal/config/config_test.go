package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "veritrustx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 220.0, cfg.Thresholds.LatencyMaxMs)
	assert.Equal(t, 0.15, cfg.Thresholds.CadenceVarianceThreshold)
	assert.Equal(t, 0.12, cfg.Thresholds.GazeDriftThreshold)
	assert.Equal(t, 0.35, cfg.Iris.Min)
	assert.Equal(t, 32, cfg.Forensic.QueueSize)
	assert.Empty(t, cfg.Auth.Secret)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
thresholds:
  latency_max_ms: 300
rate_limit:
  window: 30s
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 300.0, cfg.Thresholds.LatencyMaxMs)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.15, cfg.Thresholds.CadenceVarianceThreshold)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 30, cfg.RateLimit.Limit)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("VERITRUSTX_ADDR", ":7070")
	t.Setenv("VERITRUSTX_GAZE_DRIFT_THRESHOLD", "0.2")
	t.Setenv("VERITRUSTX_RATE_WINDOW", "2m")
	t.Setenv("VERITRUSTX_AUTH_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 0.2, cfg.Thresholds.GazeDriftThreshold)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [unclosed"))
		require.Error(t, err)
	})

	t.Run("bad env number", func(t *testing.T) {
		t.Setenv("VERITRUSTX_RATE_LIMIT", "many")
		_, err := Load("")
		require.ErrorContains(t, err, "VERITRUSTX_RATE_LIMIT")
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := Load(writeConfig(t, "thresholds:\n  gaze_drift_threshold: 1.5\n"))
		require.ErrorContains(t, err, "thresholds")
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("VERITRUSTX_DB_DRIVER", "postgres")
		t.Setenv("VERITRUSTX_DB", "")
		_, err := Load("")
		require.ErrorContains(t, err, "dsn")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("VERITRUSTX_DB_DRIVER", "mysql")
		_, err := Load("")
		require.Error(t, err)
	})
}
