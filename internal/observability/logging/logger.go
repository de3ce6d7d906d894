package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"feed-scraper/internal/handler/http/requestid"
)

// ParseLevel maps debug, info, warn/warning and error. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func handlerOptions() *slog.HandlerOptions {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	return &slog.HandlerOptions{
		Level: level,
		// debug 時のみソース位置を付ける
		AddSource: level <= slog.LevelDebug,
	}
}

// NewLogger returns a JSON logger on stdout honoring LOG_LEVEL.
func NewLogger() *slog.Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, handlerOptions()))
}

// NewTextLogger returns a human-readable logger on stderr, used by feedctl.
func NewTextLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, handlerOptions()))
}

// WithRequestID adds request_id when the context carries one.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With(slog.String("request_id", reqID))
}

// WithFeed adds feed_id and feed_url.
func WithFeed(logger *slog.Logger, feedID int64, feedURL string) *slog.Logger {
	return logger.With(slog.Int64("feed_id", feedID), slog.String("feed_url", feedURL))
}

// FromContext returns the context logger, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
