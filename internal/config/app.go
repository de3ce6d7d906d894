// Package config holds the settings shared by the api, worker and feedctl binaries.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"feed-scraper/internal/pkg/config"
	envcfg "feed-scraper/pkg/config"
)

// Watermark strategies for SCRAPE_WATERMARK.
const (
	WatermarkWallclock   = "wallclock"
	WatermarkMaxItemDate = "max-item-date"
)

// ScrapeConfig configures fetching and ingestion.
type ScrapeConfig struct {
	FetchTimeout time.Duration
	MaxBodyBytes int64
	Watermark    string
	Deduplicate  bool
	UserAgent    string
}

// APIConfig configures the admin API.
type APIConfig struct {
	Addr      string
	JWTSecret string
	RateLimit float64
	RateBurst int
	// TrustedProxies lists CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
}

// AppConfig is loaded once per process and passed down explicitly.
type AppConfig struct {
	Scrape               ScrapeConfig
	API                  APIConfig
	LatestEntriesDefault int
	OutputTimezone       string
	AllowPrivateFeeds    bool
	FeedsFile            string
	MetricsPort          int
}

// Default returns the built-in defaults.
func Default() AppConfig {
	return AppConfig{
		Scrape: ScrapeConfig{
			FetchTimeout: 20 * time.Second,
			MaxBodyBytes: 10 << 20,
			Watermark:    WatermarkWallclock,
			Deduplicate:  true,
			UserAgent:    "FeedScraperBot/1.0",
		},
		API: APIConfig{
			Addr:      ":8080",
			RateLimit: 10,
			RateBurst: 20,
		},
		LatestEntriesDefault: 5,
		OutputTimezone:       "CET",
		MetricsPort:          9090,
	}
}

// Load reads AppConfig from the environment. Invalid values fall back to the
// default with a warning; Load never fails. metrics may be nil.
func Load(logger *slog.Logger, metrics *config.ConfigMetrics) *AppConfig {
	cfg := Default()
	var c config.Collector

	cfg.Scrape.FetchTimeout = config.Collect(&c, "fetch_timeout",
		config.LoadEnvDuration("FETCH_TIMEOUT", cfg.Scrape.FetchTimeout, config.DurationBetween(time.Second, 5*time.Minute)))
	cfg.Scrape.MaxBodyBytes = config.Collect(&c, "fetch_max_bytes",
		config.LoadEnvInt64("FETCH_MAX_BYTES", cfg.Scrape.MaxBodyBytes, func(n int64) error {
			if n < 1024 {
				return fmt.Errorf("must be at least 1024 bytes")
			}
			return nil
		}))
	cfg.Scrape.Watermark = config.Collect(&c, "scrape_watermark",
		config.LoadEnvWithFallback("SCRAPE_WATERMARK", cfg.Scrape.Watermark, config.OneOf(WatermarkWallclock, WatermarkMaxItemDate)))
	cfg.Scrape.Deduplicate = config.Collect(&c, "scrape_dedupe",
		config.LoadEnvBool("SCRAPE_DEDUPE", cfg.Scrape.Deduplicate))
	cfg.Scrape.UserAgent = config.LoadEnvString("USER_AGENT", cfg.Scrape.UserAgent)

	cfg.API.Addr = config.LoadEnvString("API_ADDR", cfg.API.Addr)
	cfg.API.JWTSecret = config.LoadEnvString("JWT_SECRET", "")
	cfg.API.RateLimit = config.Collect(&c, "api_rate_limit",
		config.Load("API_RATE_LIMIT", cfg.API.RateLimit, parseFloat, func(f float64) error {
			if f <= 0 {
				return fmt.Errorf("must be positive")
			}
			return nil
		}))
	cfg.API.RateBurst = config.Collect(&c, "api_rate_burst",
		config.LoadEnvInt("API_RATE_BURST", cfg.API.RateBurst, config.IntBetween(1, 10000)))
	cfg.API.TrustedProxies = envcfg.GetEnvStringList("API_TRUSTED_PROXIES", nil)

	cfg.LatestEntriesDefault = config.Collect(&c, "latest_entries_default",
		config.LoadEnvInt("LATEST_ENTRIES_DEFAULT", cfg.LatestEntriesDefault, config.IntBetween(1, 100)))
	cfg.OutputTimezone = config.Collect(&c, "output_timezone",
		config.LoadEnvWithFallback("OUTPUT_TIMEZONE", cfg.OutputTimezone, config.ValidateTimezone))
	cfg.AllowPrivateFeeds = config.Collect(&c, "allow_private_feeds",
		config.LoadEnvBool("ALLOW_PRIVATE_FEEDS", cfg.AllowPrivateFeeds))
	cfg.FeedsFile = config.LoadEnvString("FEEDS_FILE", "")
	cfg.MetricsPort = config.Collect(&c, "metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, config.ValidatePort))

	for i, warning := range c.Warnings {
		logger.Warn("Configuration fallback applied",
			slog.String("field", c.Fields[i]),
			slog.String("warning", warning))
	}
	if metrics != nil {
		metrics.Observe(&c)
	}
	return &cfg
}

// OutputLocation returns the presentation timezone, UTC if it cannot be loaded.
func (c *AppConfig) OutputLocation() *time.Location {
	loc, err := time.LoadLocation(c.OutputTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

var weakSecrets = []string{"secret", "password", "test", "admin", "default"}

// ValidateJWTSecret enforces a 32-character minimum and rejects common weak values.
func (c *APIConfig) ValidateJWTSecret() error {
	secret := c.JWTSecret
	if secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	// セキュリティ: 最小32文字（256ビット）を強制
	if len(secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters (256 bits)")
	}
	lower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if strings.Trim(lower, "0123456789") == weak || strings.Repeat(weak, len(lower)/len(weak)) == lower {
			return fmt.Errorf("JWT_SECRET must not be a common weak value (%s)", weak)
		}
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number format")
	}
	return f, nil
}
