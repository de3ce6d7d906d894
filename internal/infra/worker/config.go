package worker

import (
	"fmt"
	"log/slog"
	"time"

	"feed-scraper/internal/pkg/config"
)

// WorkerConfig controls the scrape cadence of cmd/worker.
//
// Environment variables:
//   - CRON_SCHEDULE: five-field cron expression (default: "0 * * * *", hourly)
//   - WORKER_TIMEZONE: IANA zone the schedule is evaluated in (default: "UTC")
//   - CYCLE_TIMEOUT: upper bound for one full cycle, 1m-4h (default: 50m)
//   - FEED_TIMEOUT: upper bound for one feed, 1s-10m (default: 30s)
//   - SCRAPE_PARALLELISM: feeds scraped at once, 1-32 (default: 1)
//   - WORKER_HEALTH_PORT: 1024-65535 (default: 9091)
//   - RUN_ON_START: run one cycle immediately after startup (default: false)
type WorkerConfig struct {
	CronSchedule string
	Timezone     string
	CycleTimeout time.Duration
	FeedTimeout  time.Duration
	Parallelism  int
	HealthPort   int
	RunOnStart   bool
}

// DefaultConfig returns the hourly, sequential configuration.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 * * * *",
		Timezone:     "UTC",
		// 次の毎時実行より前に終わらせる
		CycleTimeout: 50 * time.Minute,
		FeedTimeout:  30 * time.Second,
		Parallelism:  1,
		HealthPort:   9091,
		RunOnStart:   false,
	}
}

// Validate checks every field and reports all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.CycleTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("cycle timeout: %w", err))
	}
	if err := config.ValidateDuration(c.FeedTimeout, time.Second, 10*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("feed timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.Parallelism, 1, 32); err != nil {
		errs = append(errs, fmt.Errorf("parallelism: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// Location returns the schedule timezone. Validated configs never hit the UTC fallback.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads WorkerConfig with fail-open semantics: an invalid
// value is replaced by its default, logged, and counted in metrics.
// The returned error is always nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	var c config.Collector

	cfg.CronSchedule = config.Collect(&c, "cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule))
	cfg.Timezone = config.Collect(&c, "timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.CycleTimeout = config.Collect(&c, "cycle_timeout",
		config.LoadEnvDuration("CYCLE_TIMEOUT", cfg.CycleTimeout, config.DurationBetween(time.Minute, 4*time.Hour)))
	cfg.FeedTimeout = config.Collect(&c, "feed_timeout",
		config.LoadEnvDuration("FEED_TIMEOUT", cfg.FeedTimeout, config.DurationBetween(time.Second, 10*time.Minute)))
	cfg.Parallelism = config.Collect(&c, "parallelism",
		config.LoadEnvInt("SCRAPE_PARALLELISM", cfg.Parallelism, config.IntBetween(1, 32)))
	cfg.HealthPort = config.Collect(&c, "health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, config.IntBetween(1024, 65535)))
	cfg.RunOnStart = config.Collect(&c, "run_on_start",
		config.LoadEnvBool("RUN_ON_START", cfg.RunOnStart))

	for i, warning := range c.Warnings {
		logger.Warn("Configuration fallback applied",
			slog.String("field", c.Fields[i]),
			slog.String("warning", warning))
	}
	metrics.Observe(&c)

	return &cfg, nil
}
