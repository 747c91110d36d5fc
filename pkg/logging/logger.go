// Package logging builds the process logger and keeps secrets out of log
// output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string
	// Format is console or json. Console uses zap's development encoder.
	Format string
}

// New builds the process logger. Output goes to stderr so reports written to
// stdout stay machine-readable.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var logConfig zap.Config
	switch cfg.Format {
	case "json":
		logConfig = zap.NewProductionConfig()
	case "console", "":
		logConfig = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	logConfig.Level = level

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
