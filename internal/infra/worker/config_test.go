package worker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0 * * * *", cfg.CronSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 50*time.Minute, cfg.CycleTimeout)
	assert.Equal(t, 30*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.False(t, cfg.RunOnStart)
	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *WorkerConfig)
		wantErr string
	}{
		{"invalid cron", func(c *WorkerConfig) { c.CronSchedule = "hourly" }, "cron schedule"},
		{"empty timezone", func(c *WorkerConfig) { c.Timezone = "" }, "timezone"},
		{"cycle timeout too short", func(c *WorkerConfig) { c.CycleTimeout = 10 * time.Second }, "cycle timeout"},
		{"feed timeout zero", func(c *WorkerConfig) { c.FeedTimeout = 0 }, "feed timeout"},
		{"parallelism zero", func(c *WorkerConfig) { c.Parallelism = 0 }, "parallelism"},
		{"parallelism too high", func(c *WorkerConfig) { c.Parallelism = 33 }, "parallelism"},
		{"privileged health port", func(c *WorkerConfig) { c.HealthPort = 80 }, "health port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestWorkerConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CronSchedule = "bad"
	cfg.Parallelism = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cron schedule")
	assert.Contains(t, err.Error(), "parallelism")
}

func TestWorkerConfig_Location(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())

	cfg.Timezone = "Atlantis/Capital"
	assert.Equal(t, time.UTC, cfg.Location())
}

/* ───────── LoadConfigFromEnv ───────── */

var workerEnvKeys = []string{
	"CRON_SCHEDULE", "WORKER_TIMEZONE", "CYCLE_TIMEOUT", "FEED_TIMEOUT",
	"SCRAPE_PARALLELISM", "WORKER_HEALTH_PORT", "RUN_ON_START",
}

func setWorkerEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range workerEnvKeys {
		t.Setenv(k, env[k])
	}
}

func newTestMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.NewRegistry())
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestLoadConfigFromEnv_AllValid(t *testing.T) {
	setWorkerEnv(t, map[string]string{
		"CRON_SCHEDULE":      "*/30 * * * *",
		"WORKER_TIMEZONE":    "Europe/Paris",
		"CYCLE_TIMEOUT":      "20m",
		"FEED_TIMEOUT":       "45s",
		"SCRAPE_PARALLELISM": "4",
		"WORKER_HEALTH_PORT": "9191",
		"RUN_ON_START":       "true",
	})
	metrics := newTestMetrics()

	cfg, err := LoadConfigFromEnv(quietLogger(), metrics)
	require.NoError(t, err)

	assert.Equal(t, WorkerConfig{
		CronSchedule: "*/30 * * * *",
		Timezone:     "Europe/Paris",
		CycleTimeout: 20 * time.Minute,
		FeedTimeout:  45 * time.Second,
		Parallelism:  4,
		HealthPort:   9191,
		RunOnStart:   true,
	}, *cfg)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))
}

func TestLoadConfigFromEnv_Missing(t *testing.T) {
	setWorkerEnv(t, nil)

	cfg, err := LoadConfigFromEnv(quietLogger(), newTestMetrics())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfigFromEnv_InvalidFieldsFallBack(t *testing.T) {
	setWorkerEnv(t, map[string]string{
		"CRON_SCHEDULE":      "every hour",
		"WORKER_TIMEZONE":    "Asia/Tokyo",
		"FEED_TIMEOUT":       "1h",
		"SCRAPE_PARALLELISM": "many",
	})
	metrics := newTestMetrics()

	cfg, err := LoadConfigFromEnv(quietLogger(), metrics)
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.CronSchedule, cfg.CronSchedule)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, def.FeedTimeout, cfg.FeedTimeout)
	assert.Equal(t, def.Parallelism, cfg.Parallelism)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
	for _, field := range []string{"cron_schedule", "feed_timeout", "parallelism"} {
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(field)), field)
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues(field)), field)
	}
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("timezone")))
}
