// Command api serves the admin JSON API for feeds and entries.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feed-scraper/internal/app"
	"feed-scraper/internal/common/pagination"
	"feed-scraper/internal/config"
	hmiddleware "feed-scraper/internal/handler/http/middleware"
	workerPkg "feed-scraper/internal/infra/worker"
	"feed-scraper/internal/observability/logging"
	"feed-scraper/internal/observability/tracing"
	pkgconfig "feed-scraper/internal/pkg/config"
	envcfg "feed-scraper/pkg/config"
)

// @title           Feed Scraper Admin API
// @version         1.0
// @description     RSS フィードの登録・スクレイプ・エントリ参照を行う管理用 API

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT トークンによる認証。ヘッダーに "Bearer {token}" 形式で指定してください。

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("api stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Setup(envcfg.GetEnvFloat("TRACE_SAMPLE_RATIO", 1.0))
	defer func() { _ = shutdownTracing(context.Background()) }()

	cfg := config.Load(logger, pkgconfig.NewConfigMetrics("api"))
	// セキュリティ: 弱い JWT_SECRET では起動しない
	if err := cfg.API.ValidateJWTSecret(); err != nil {
		return err
	}
	proxies, err := hmiddleware.ParseTrustedProxies(cfg.API.TrustedProxies)
	if err != nil {
		return err
	}
	// 次回実行時刻の表示用。worker と同じ設定を読む
	schedule := pkgconfig.LoadEnvWithFallback("CRON_SCHEDULE",
		workerPkg.DefaultConfig().CronSchedule, pkgconfig.ValidateCronSchedule).Value
	shutdownTimeout := pkgconfig.LoadEnvDuration("API_SHUTDOWN_TIMEOUT",
		10*time.Second, pkgconfig.ValidatePositiveDuration).Value

	stores, err := app.OpenStoresFromEnv(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	scraping := app.NewScraping(cfg, stores)
	feedSvc, entrySvc := app.Services(cfg, stores, schedule)
	limiter := hmiddleware.NewIPRateLimiter(cfg.API.RateLimit, cfg.API.RateBurst, proxies)

	handler := newHandler(serverDeps{
		logger:   logger,
		version:  envcfg.GetEnvString("VERSION", "dev"),
		secret:   []byte(cfg.API.JWTSecret),
		db:       stores.DB,
		breakers: scraping.Fetcher.Breakers().Open,
		feeds:    feedSvc,
		entries:  entrySvc,
		scraper:  scraping.Engine,
		loc:      cfg.OutputLocation(),
		paging:   pagination.LoadFromEnv(),
		limiter:  limiter,
	})

	go sweepLimiter(ctx, logger, limiter)

	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// 手動スクレイプはフェッチ時間分かかる
		WriteTimeout: cfg.Scrape.FetchTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// sweepLimiter drops idle per-IP limiters once a minute.
func sweepLimiter(ctx context.Context, logger *slog.Logger, l *hmiddleware.IPRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				logger.Debug("rate limiter swept", slog.Int("removed", n), slog.Int("active", l.Clients()))
			}
		}
	}
}
