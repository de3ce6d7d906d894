// Command worker runs the hourly scrape cycle over all registered feeds.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"feed-scraper/internal/app"
	"feed-scraper/internal/config"
	workerPkg "feed-scraper/internal/infra/worker"
	"feed-scraper/internal/observability/logging"
	"feed-scraper/internal/observability/tracing"
	pkgconfig "feed-scraper/internal/pkg/config"
	"feed-scraper/internal/usecase/scrape"
	envcfg "feed-scraper/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Setup(envcfg.GetEnvFloat("TRACE_SAMPLE_RATIO", 1.0))
	defer func() { _ = shutdownTracing(context.Background()) }()

	appCfg := config.Load(logger, pkgconfig.NewConfigMetrics("app"))
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerCfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return fmt.Errorf("worker configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerCfg.CronSchedule),
		slog.String("timezone", workerCfg.Timezone),
		slog.Duration("cycle_timeout", workerCfg.CycleTimeout),
		slog.Duration("feed_timeout", workerCfg.FeedTimeout),
		slog.Int("parallelism", workerCfg.Parallelism),
		slog.String("watermark", appCfg.Scrape.Watermark),
		slog.Bool("dedupe", appCfg.Scrape.Deduplicate))

	stores, err := app.OpenStoresFromEnv(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	feedSvc, _ := app.Services(appCfg, stores, workerCfg.CronSchedule)
	if _, err := app.SeedFromFile(ctx, logger, feedSvc, appCfg.FeedsFile); err != nil {
		return fmt.Errorf("seed feeds: %w", err)
	}

	scraping := app.NewScraping(appCfg, stores)
	scheduler := scrape.NewScheduler(stores.Feeds, scraping.Engine, scrape.SchedulerConfig{
		Parallelism: workerCfg.Parallelism,
		FeedTimeout: workerCfg.FeedTimeout,
	})

	startMetricsServer(ctx, logger, appCfg.MetricsPort, stores.DB.DB)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerCfg.HealthPort), logger).
		WithReadinessCheck(stores.DB.PingContext).
		WithBreakers(scraping.Fetcher.Breakers().Open)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	job := &cycleJob{
		logger:    logger,
		scheduler: scheduler,
		feeds:     stores.Feeds,
		metrics:   workerMetrics,
		timeout:   workerCfg.CycleTimeout,
		now:       time.Now,
	}

	c := cron.New(
		cron.WithLocation(workerCfg.Location()),
		cron.WithParser(pkgconfig.CronParser),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if _, err := c.AddFunc(workerCfg.CronSchedule, func() { job.Run(ctx) }); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	c.Start()
	healthServer.SetReady(true)

	next, _ := scrape.NextRun(workerCfg.CronSchedule, workerCfg.Location(), time.Now())
	logger.Info("worker started",
		slog.String("schedule", workerCfg.CronSchedule),
		slog.Time("next_run", next))

	if workerCfg.RunOnStart {
		go job.Run(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down worker...")
	healthServer.SetReady(false)

	// 実行中のサイクルは ctx のキャンセルで中断される
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("running cycle did not stop in time")
	}
	logger.Info("worker stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
