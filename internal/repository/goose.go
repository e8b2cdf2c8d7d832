package repository

import (
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	logger zerolog.Logger
}

// NewGooseLogger adapts a zerolog logger to goose.Logger.
func NewGooseLogger(logger zerolog.Logger) goose.Logger {
	return &gooseLogger{logger: logger.With().Str("component", "migrate").Logger()}
}

// Printf logs informational migration progress.
func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msgf(strings.TrimSuffix(format, "\n"), v...)
}

// Fatalf logs a migration failure. Goose returns the error to the caller as
// well, so the process is not terminated here.
func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error().Msgf(strings.TrimSuffix(format, "\n"), v...)
}
