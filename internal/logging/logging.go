// Package logging builds the zap loggers used by the limsload CLI.
package logging

import (
	"strings"

	"go.uber.org/zap"

	"limscore/internal/importer"
)

// Logger wraps a sugared zap logger. The promoted methods (Infow, Warnw,
// Errorw) satisfy importer.Logger directly.
type Logger struct {
	*zap.SugaredLogger
}

var _ importer.Logger = (*Logger)(nil)

// New builds a logger for the given mode. "prod" and "production" select
// the JSON production config; anything else selects the console development
// config.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: base.Sugar()}, nil
}

// Sync flushes buffered entries. Safe to call on exit.
func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

// With returns a child logger with the given key/value pairs attached.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}
