package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// ContextKey is the type for context keys carried into log records.
type ContextKey string

const (
	// RequestIDKey carries the inbound request ID.
	RequestIDKey ContextKey = "request_id"
	// UserIDKey carries the wallet owner a request acts on.
	UserIDKey ContextKey = "user_id"
	// ActorIDKey carries the admin performing an approval or refund.
	ActorIDKey ContextKey = "actor_id"
)

// contextFields are the keys WithContext lifts into every record.
var contextFields = []ContextKey{RequestIDKey, UserIDKey, ActorIDKey}

// Logger wraps slog.Logger with context-aware variants of each level.
type Logger struct {
	*slog.Logger
}

// New creates a structured logger writing to stdout. Format "json" emits
// JSON records; anything else falls back to the text handler.
func New(level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithContext returns a logger carrying whichever context fields are set.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.Logger
	for _, key := range contextFields {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			logger = logger.With(string(key), v)
		}
	}
	return logger
}

// InfoCtx logs at info level with context fields attached.
func (l *Logger) InfoCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Info(msg, args...)
}

// ErrorCtx logs at error level with context fields attached.
func (l *Logger) ErrorCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Error(msg, args...)
}

// WarnCtx logs at warn level with context fields attached.
func (l *Logger) WarnCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Warn(msg, args...)
}

// DebugCtx logs at debug level with context fields attached.
func (l *Logger) DebugCtx(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
