package utils

import (
	"fmt"

	"github.com/hyperjump/clausekit/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a zap logger built from cfg. When debug is true, uses the
// development config (console, debug level) regardless of cfg.
func NewLogger(cfg config.LoggingConfig, debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	zc := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	switch cfg.Encoding {
	case "", "json":
	case "console":
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	default:
		return nil, fmt.Errorf("invalid log encoding %q", cfg.Encoding)
	}
	return zc.Build()
}
