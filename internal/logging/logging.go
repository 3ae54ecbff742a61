// Package logging is a thin structured-logging wrapper around zerolog,
// shared by every adapter and the router so none of them import zerolog
// directly.
package logging

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with the small surface the rest of the
// toolkit needs.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing RFC3339Nano-timestamped JSON to stdout.
func New() *Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// WithLevel returns a copy of l restricted to level and above.
func (l *Logger) WithLevel(level zerolog.Level) *Logger {
	return &Logger{zl: l.zl.Level(level)}
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.zl.Debug().Msgf(format, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.zl.Info().Msgf(format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.zl.Warn().Msgf(format, v...)
}

func (l *Logger) Errorf(err error, format string, v ...interface{}) {
	l.zl.Error().Err(err).Msgf(format, v...)
}

func (l *Logger) Fatalf(err error, format string, v ...interface{}) {
	l.zl.Fatal().Err(err).Msgf(format, v...)
}

// With starts a child logger builder carrying structured fields, e.g.
// logging.Default().With().Str("provider", "mpc").Logger-equivalent use.
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns the process-wide Logger, building it on first use.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New()
	})
	return defaultLogger
}
