// Package logging wraps log/slog with the conventions used across the service:
// JSON on stdout, LOG_LEVEL control, request-ID and feed attributes, and a
// logger carried in the context.
//
//	logger := logging.WithFeed(logging.FromContext(ctx), feed.ID, feed.URL)
//	logger.Warn("item skipped", slog.String("pub_date", raw))
package logging
