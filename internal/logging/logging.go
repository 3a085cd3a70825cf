package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option adjusts the logger configuration before it is built.
type Option func(*zap.Config) error

// WithLevel sets the minimum enabled level, e.g. "debug" or "warn".
func WithLevel(level string) Option {
	return func(cfg *zap.Config) error {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return fmt.Errorf("parse level: %w", err)
		}
		cfg.Level = lvl
		return nil
	}
}

// WithConsole switches to human readable output on stderr, used by the CLI
// commands that do not run the server.
func WithConsole() Option {
	return func(cfg *zap.Config) error {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.DisableStacktrace = true
		return nil
	}
}

// New creates a production-ready structured logger configured for JSON output.
func New(opts ...Option) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
