// Package logger builds the structured logger used across kvsync.
// The logger is created once in main and passed to every service and
// adapter; nothing in the codebase logs through a global.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the logger.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "json" for production output, anything else for the
	// human-readable console encoder.
	Format string
	// OutputPath is a file path, "stdout" or "stderr". Empty means stderr.
	OutputPath string
	// Verbose forces the debug level regardless of Level.
	Verbose bool
}

// New creates a logger from options.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config

	if opts.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		// Console output keeps warnings to a single line.
		cfg.DisableStacktrace = true
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	output := opts.OutputPath
	if output == "" {
		output = "stderr"
	}
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

// ParseLevel parses a level name. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %w", err)
	}
	return level, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
