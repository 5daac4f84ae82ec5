// Package logger provides structured logging utilities.
package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output encodings accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Logger is a wrapper around zap.Logger.
type Logger struct {
	*zap.Logger
}

// New builds the process logger. Console output is colored and meant for
// a terminal; anything else is JSON lines on stdout.
func New(level, format string) (*Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(format, FormatConsole) {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: l}, nil
}

// Wrap adapts an existing zap logger, e.g. one built by zaptest.
func Wrap(l *zap.Logger) *Logger {
	return &Logger{Logger: l}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With creates a child logger with additional fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Named creates a child logger for a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// WithSession tags every entry with a realtime session.
func (l *Logger) WithSession(sessionID, transport string) *Logger {
	return l.With(
		zap.String("session_id", sessionID),
		zap.String("transport", transport),
	)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

var global atomic.Pointer[Logger]

func init() {
	global.Store(Nop())
}

// Global returns the process logger. It discards output until SetGlobal
// is called.
func Global() *Logger {
	return global.Load()
}

// SetGlobal sets the process logger.
func SetGlobal(l *Logger) {
	if l != nil {
		global.Store(l)
	}
}

// OrGlobal returns l, or the process logger when l is nil.
func OrGlobal(l *Logger) *Logger {
	if l == nil {
		return Global()
	}
	return l
}
