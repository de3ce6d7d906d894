package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)
)

// Scrape metrics
var (
	// FeedScrapesTotal counts scrape outcomes: success, fetch_error, parse_error, error.
	FeedScrapesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_scrapes_total",
			Help: "Total number of feed scrapes by result",
		},
		[]string{"result"},
	)

	FeedScrapeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_scrape_duration_seconds",
			Help:    "Time taken to scrape one feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	FeedEntriesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_entries_ingested_total",
			Help: "Total number of entries stored",
		},
	)

	// FeedItemsSkippedTotal counts items dropped for an unparsable pubDate.
	FeedItemsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_items_skipped_total",
			Help: "Total number of feed items skipped because of an invalid publication date",
		},
	)

	FeedItemsDuplicateTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_items_duplicate_total",
			Help: "Total number of feed items already stored under the same dedupe key",
		},
	)

	FeedFetchBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "feed_fetch_size_bytes",
			Help: "Size of fetched feed documents in bytes",
			Buckets: []float64{
				1024, 4096, 16384, 65536, 262144, 1048576, 4194304, 10485760,
			},
		},
	)
)

// Store gauges
var (
	FeedsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feeds_total",
			Help: "Total number of registered feeds",
		},
	)

	FeedsInvalid = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feeds_invalid",
			Help: "Number of feeds whose last scrape failed",
		},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
