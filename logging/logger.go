// Package logging provides structured logging for the runc-go container runtime.
//
// Logging is built on logrus rather than the standard library: every other
// component in this tree's dependency pack (agent, orchestrator, and TUI alike)
// reaches for logrus for exactly this purpose, and a structured *logrus.Entry
// is what lets the correlation id threaded by the errors package show up
// consistently whether the log line originates in the caller, the
// intermediate, or the init process.
package logging

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// ctxKey is the context key for the logger.
type ctxKey struct{}

var (
	// defaultLogger is the global logger instance.
	defaultLogger *logrus.Logger
	// loggerMu protects defaultLogger.
	loggerMu sync.RWMutex
)

func init() {
	defaultLogger = logrus.New()
	defaultLogger.SetOutput(os.Stderr)
	defaultLogger.SetLevel(logrus.InfoLevel)
	defaultLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Config holds the logger configuration.
type Config struct {
	// Level is the minimum log level.
	Level logrus.Level
	// Format is the output format ("text" or "json").
	Format string
	// Output is the log output destination.
	Output io.Writer
	// AddSource adds the calling function/file to log entries.
	AddSource bool
}

// NewLogger creates a new structured logger with the given configuration.
func NewLogger(cfg Config) *logrus.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(cfg.Output)
	logger.SetLevel(cfg.Level)
	logger.SetReportCaller(cfg.AddSource)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// SetDefault sets the default global logger.
func SetDefault(logger *logrus.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = logger
}

// Default returns the default global logger.
func Default() *logrus.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// WithContainer returns a logger with container context.
func WithContainer(logger logrus.FieldLogger, id string) *logrus.Entry {
	return logger.WithField("container_id", id)
}

// WithOperation returns a logger with operation context.
func WithOperation(logger logrus.FieldLogger, op string) *logrus.Entry {
	return logger.WithField("operation", op)
}

// WithPID returns a logger with process ID context.
func WithPID(logger logrus.FieldLogger, pid int) *logrus.Entry {
	return logger.WithField("pid", pid)
}

// WithPath returns a logger with file path context.
func WithPath(logger logrus.FieldLogger, path string) *logrus.Entry {
	return logger.WithField("path", path)
}

// WithCorrelation returns a logger carrying a correlation id, joining log
// lines from the caller, intermediate, and init processes of a single
// operation.
func WithCorrelation(logger logrus.FieldLogger, id string) *logrus.Entry {
	return logger.WithField("correlation_id", id)
}

// ContextWithLogger returns a new context with the logger attached.
func ContextWithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext retrieves the logger from context.
// If no logger is found, returns the default logger.
func FromContext(ctx context.Context) logrus.FieldLogger {
	if logger, ok := ctx.Value(ctxKey{}).(logrus.FieldLogger); ok {
		return logger
	}
	return Default()
}

// ParseLevel parses a log level string and returns the corresponding logrus.Level.
// Valid values: "debug", "info", "warn", "error". Returns logrus.InfoLevel for
// invalid values.
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Helper functions for common log patterns using the default logger.
//
// Each takes a message followed by alternating key/value pairs, entered as
// logrus fields rather than concatenated into the message the way a bare
// logrus.Warn(args...) would: a trailing unpaired key is logged under
// "!BADKEY" rather than silently dropped.

func fieldsFrom(kvs []any) logrus.Fields {
	fields := make(logrus.Fields, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			key = "!BADKEY"
		}
		fields[key] = kvs[i+1]
	}
	if len(kvs)%2 == 1 {
		fields["!BADKEY"] = kvs[len(kvs)-1]
	}
	return fields
}

// Info logs an info message with structured fields using the default logger.
func Info(msg string, kvs ...any) {
	Default().WithFields(fieldsFrom(kvs)).Info(msg)
}

// Warn logs a warning message with structured fields using the default logger.
func Warn(msg string, kvs ...any) {
	Default().WithFields(fieldsFrom(kvs)).Warn(msg)
}

// Error logs an error message with structured fields using the default logger.
func Error(msg string, kvs ...any) {
	Default().WithFields(fieldsFrom(kvs)).Error(msg)
}

// Debug logs a debug message with structured fields using the default logger.
func Debug(msg string, kvs ...any) {
	Default().WithFields(fieldsFrom(kvs)).Debug(msg)
}

// InfoContext logs an info message using the logger carried by ctx.
func InfoContext(ctx context.Context, msg string, kvs ...any) {
	FromContext(ctx).WithFields(fieldsFrom(kvs)).Info(msg)
}

// WarnContext logs a warning message using the logger carried by ctx.
func WarnContext(ctx context.Context, msg string, kvs ...any) {
	FromContext(ctx).WithFields(fieldsFrom(kvs)).Warn(msg)
}

// ErrorContext logs an error message using the logger carried by ctx.
func ErrorContext(ctx context.Context, msg string, kvs ...any) {
	FromContext(ctx).WithFields(fieldsFrom(kvs)).Error(msg)
}

// DebugContext logs a debug message using the logger carried by ctx.
func DebugContext(ctx context.Context, msg string, kvs ...any) {
	FromContext(ctx).WithFields(fieldsFrom(kvs)).Debug(msg)
}
