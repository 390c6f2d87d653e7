// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     logging
// Description: Named structured loggers for SandVoice components
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a string level to a Level, defaulting to info
func ParseLevel(level string) Level {
	switch level {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	defaultMu     sync.RWMutex
	defaultLevel  = LevelInfo
	defaultOutput io.Writer = os.Stderr
	defaultFormat           = "text"
)

// Configure sets the process-wide defaults used by New. It should be called
// once at startup, before components create their loggers.
func Configure(level string, format string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLevel = ParseLevel(level)
	if format == "json" || format == "text" {
		defaultFormat = format
	}
}

// SetOutput redirects all subsequently created loggers. A nil writer
// restores stderr. Used by tests.
func SetOutput(w io.Writer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	defaultOutput = w
}

func newHandler(level Level) slog.Handler {
	defaultMu.RLock()
	output := defaultOutput
	format := defaultFormat
	defaultMu.RUnlock()

	opts := &slog.HandlerOptions{Level: level.slogLevel()}
	if format == "json" {
		return slog.NewJSONHandler(output, opts)
	}
	return slog.NewTextHandler(output, opts)
}

// Logger is a named logger with key-value structured output
type Logger struct {
	name string
	sl   *slog.Logger
}

// New creates a named logger using the process-wide defaults
func New(name string) *Logger {
	defaultMu.RLock()
	level := defaultLevel
	defaultMu.RUnlock()

	return &Logger{
		name: name,
		sl:   slog.New(newHandler(level)).With("component", name),
	}
}

// WithLevel returns a new logger with the specified minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{
		name: l.name,
		sl:   slog.New(newHandler(level)).With("component", l.name),
	}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sl.Debug(msg, keysAndValues...)
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sl.Info(msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sl.Warn(msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sl.Error(msg, keysAndValues...)
}
