// Package logging builds the process-wide structured logger. Workers and
// HTTP handlers take a *zap.Logger from Deps rather than reaching for a
// package-level global (spec §9 — no singletons).
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger from LOG_LEVEL / LOG_FORMAT. Format "console"
// (the default outside of GIN_MODE=release) is human-readable; "json" is
// used in production so log aggregators can parse each line directly.
func New(levelStr, format string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if levelStr != "" {
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "console" {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	return zap.New(core, zap.AddCaller()), nil
}

// NewFromEnv is the boot-time convenience constructor used by cmd/engine.
func NewFromEnv() *zap.Logger {
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		if os.Getenv("GIN_MODE") == "release" {
			format = "json"
		} else {
			format = "console"
		}
	}
	logger, err := New(os.Getenv("LOG_LEVEL"), format)
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}
