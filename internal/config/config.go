// Package config loads service settings from defaults, an optional YAML
// file and VERITRUSTX_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/logging"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
)

const envPrefix = "VERITRUSTX_"

// Config is the top-level configuration.
type Config struct {
	Server     ServerConfig          `yaml:"server"`
	Database   DatabaseConfig        `yaml:"database"`
	Thresholds proxyguard.Thresholds `yaml:"thresholds"`
	Iris       proxyguard.IrisRange  `yaml:"iris"`
	Logging    logging.Config        `yaml:"logging"`
	Redis      RedisConfig           `yaml:"redis"`
	RateLimit  RateLimitConfig       `yaml:"rate_limit"`
	Auth       AuthConfig            `yaml:"auth"`
	Forensic   ForensicConfig        `yaml:"forensic"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the store driver. An empty DSN with the sqlite
// driver means the default database path.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// RedisConfig points the rate limiter at Redis. An empty Addr selects the
// in-memory limiter.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig is a fixed window applied to the AI passthrough.
type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// AuthConfig enables bearer tokens on protected routes when Secret is set.
type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// ForensicConfig sizes the narrative queue and batch scoring.
type ForensicConfig struct {
	QueueSize        int           `yaml:"queue_size"`
	BatchParallelism int           `yaml:"batch_parallelism"`
	ReportTimeout    time.Duration `yaml:"report_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Thresholds: proxyguard.DefaultThresholds(),
		Iris:       proxyguard.DefaultIrisRange(),
		Logging:    logging.DefaultConfig(),
		RateLimit: RateLimitConfig{
			Limit:  30,
			Window: time.Minute,
		},
		Auth: AuthConfig{
			Issuer:   "veritrustx",
			TokenTTL: 12 * time.Hour,
		},
		Forensic: ForensicConfig{
			QueueSize:        32,
			BatchParallelism: 8,
			ReportTimeout:    60 * time.Second,
		},
	}
}

// Load builds the configuration. An empty path skips the file; a path that
// does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides reads VERITRUSTX_* variables over the current values.
func (c *Config) applyEnvOverrides() error {
	setString(&c.Server.Addr, "ADDR")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Logging.File, "LOG_FILE")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Auth.Secret, "AUTH_SECRET")
	setString(&c.Auth.Issuer, "AUTH_ISSUER")

	return errors.Join(
		setInt(&c.Redis.DB, "REDIS_DB"),
		setInt(&c.RateLimit.Limit, "RATE_LIMIT"),
		setDuration(&c.RateLimit.Window, "RATE_WINDOW"),
		setDuration(&c.Auth.TokenTTL, "AUTH_TOKEN_TTL"),
		setFloat(&c.Thresholds.LatencyMaxMs, "LATENCY_MAX_MS"),
		setFloat(&c.Thresholds.CadenceVarianceThreshold, "CADENCE_VARIANCE_THRESHOLD"),
		setFloat(&c.Thresholds.GazeDriftThreshold, "GAZE_DRIFT_THRESHOLD"),
	)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if err := c.Iris.Validate(); err != nil {
		return fmt.Errorf("iris: %w", err)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit needs a positive limit and window")
	}
	if c.Auth.Secret != "" && c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Forensic.QueueSize <= 0 || c.Forensic.BatchParallelism <= 0 {
		return fmt.Errorf("forensic queue_size and batch_parallelism must be positive")
	}
	return nil
}

func lookup(name string) (string, bool) {
	v := os.Getenv(envPrefix + name)
	return v, v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}
