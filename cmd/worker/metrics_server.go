package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feed-scraper/internal/observability/metrics"
)

const dbStatsInterval = 15 * time.Second

// startMetricsServer serves /metrics on port until ctx is cancelled and
// refreshes the db_connections_* gauges from database every 15 seconds.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, database *sql.DB) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		ticker := time.NewTicker(dbStatsInterval)
		defer ticker.Stop()
		for {
			metrics.UpdateDBConnectionStats(database.Stats())
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("metrics server shutdown error", slog.Any("error", err))
				}
				return
			case <-ticker.C:
			}
		}
	}()

	return server
}
