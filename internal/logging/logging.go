// Package logging builds the zap logger shared by the server and the CLI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level, encoding and optional rotating file.
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
	File   string `yaml:"file"`   // empty disables file output

	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// DefaultConfig logs info and above as JSON to stderr.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// New returns a logger writing to stderr and, when cfg.File is set, to a
// rotating JSON file.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEnc zapcore.Encoder
	switch cfg.Format {
	case "", "json":
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEnc = zapcore.NewConsoleEncoder(devCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level),
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), writer, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
