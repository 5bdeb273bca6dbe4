package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger for the given level ("debug", "info", "warn",
// "error") and format ("json" or "console"). Unknown values fall back to
// info/json.
func New(level, format string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// ForSession returns a sugared logger scoped to one playback session.
func ForSession(log *zap.Logger, sessionID string) *zap.SugaredLogger {
	return log.With(zap.String("session_id", sessionID)).Sugar()
}

// ForComponent returns a sugared logger scoped to a named component.
func ForComponent(log *zap.Logger, component string) *zap.SugaredLogger {
	return log.With(zap.String("component", component)).Sugar()
}
