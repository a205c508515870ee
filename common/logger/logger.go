package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel/trace"
)

// Logger wraps slog.Logger with contextual fields
type Logger struct {
	*slog.Logger
}

// New creates a new logger writing to stdout
func New(level, format string) *Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer, level, format string) *Logger {
	var handler slog.Handler

	logLevel := parseLevel(level)

	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: logLevel,
		})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.TimeOnly,
			AddSource:  false,
		})
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithContext returns a logger carrying the trace_id of the active span, if any
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return &Logger{
			Logger: l.With("trace_id", sc.TraceID().String()),
		}
	}
	return l
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		Logger: l.With(args...),
	}
}

// WithAppID adds appid to logger context
func (l *Logger) WithAppID(appID string) *Logger {
	return &Logger{
		Logger: l.With("appid", appID),
	}
}

// Error logs an error with stack trace
func (l *Logger) Error(msg string, args ...any) {
	stack := string(debug.Stack())
	args = append(args, "stack", stack)
	l.Logger.Error(msg, args...)
}

// ErrorContext logs an error with context and stack trace
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	stack := string(debug.Stack())
	args = append(args, "stack", stack)
	l.Logger.ErrorContext(ctx, msg, args...)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
