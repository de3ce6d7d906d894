package config

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "feed-scraper/internal/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var appEnvKeys = []string{
	"FETCH_TIMEOUT", "FETCH_MAX_BYTES", "SCRAPE_WATERMARK", "SCRAPE_DEDUPE", "USER_AGENT",
	"API_ADDR", "JWT_SECRET", "API_RATE_LIMIT", "API_RATE_BURST", "API_TRUSTED_PROXIES",
	"LATEST_ENTRIES_DEFAULT", "OUTPUT_TIMEZONE", "ALLOW_PRIVATE_FEEDS", "FEEDS_FILE", "METRICS_PORT",
}

func clearAppEnv(t *testing.T) {
	t.Helper()
	for _, k := range appEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAppEnv(t)

	cfg := Load(discardLogger(), nil)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, 5, cfg.LatestEntriesDefault)
	assert.Equal(t, WatermarkWallclock, cfg.Scrape.Watermark)
	assert.True(t, cfg.Scrape.Deduplicate)
	assert.Equal(t, int64(10485760), cfg.Scrape.MaxBodyBytes)
}

func TestLoad_Overrides(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("SCRAPE_WATERMARK", "max-item-date")
	t.Setenv("SCRAPE_DEDUPE", "false")
	t.Setenv("USER_AGENT", "test-agent")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("LATEST_ENTRIES_DEFAULT", "12")
	t.Setenv("OUTPUT_TIMEZONE", "Asia/Tokyo")
	t.Setenv("ALLOW_PRIVATE_FEEDS", "true")
	t.Setenv("FEEDS_FILE", "/etc/feeds.yaml")
	t.Setenv("API_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")

	cfg := Load(discardLogger(), nil)

	assert.Equal(t, 5*time.Second, cfg.Scrape.FetchTimeout)
	assert.Equal(t, WatermarkMaxItemDate, cfg.Scrape.Watermark)
	assert.False(t, cfg.Scrape.Deduplicate)
	assert.Equal(t, "test-agent", cfg.Scrape.UserAgent)
	assert.Equal(t, 2.5, cfg.API.RateLimit)
	assert.Equal(t, 12, cfg.LatestEntriesDefault)
	assert.Equal(t, "Asia/Tokyo", cfg.OutputTimezone)
	assert.True(t, cfg.AllowPrivateFeeds)
	assert.Equal(t, "/etc/feeds.yaml", cfg.FeedsFile)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.API.TrustedProxies)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("SCRAPE_WATERMARK", "newest")
	t.Setenv("LATEST_ENTRIES_DEFAULT", "0")
	t.Setenv("OUTPUT_TIMEZONE", "Nowhere/City")

	reg := prometheus.NewRegistry()
	metrics := pkgconfig.NewConfigMetricsWith(reg, "app_test")

	cfg := Load(discardLogger(), metrics)

	assert.Equal(t, WatermarkWallclock, cfg.Scrape.Watermark)
	assert.Equal(t, 5, cfg.LatestEntriesDefault)
	assert.Equal(t, "CET", cfg.OutputTimezone)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("scrape_watermark")))
}

func TestAppConfig_OutputLocation(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "CET", cfg.OutputLocation().String())

	cfg.OutputTimezone = "bogus"
	assert.Equal(t, time.UTC, cfg.OutputLocation())
}

func TestAPIConfig_ValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr string
	}{
		{"empty", "", "must be set"},
		{"too short", "short-secret", "at least 32"},
		{"repeated weak word", strings.Repeat("secret", 6), "weak value"},
		{"strong", "0f9c2b7e4a1d8c3f6e5b9a7d2c4f1e8b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := APIConfig{JWTSecret: tt.secret}
			err := c.ValidateJWTSecret()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
