package metrics

import (
	"database/sql"
	"time"
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordScrape records one feed scrape outcome and its duration.
func RecordScrape(result string, duration time.Duration) {
	FeedScrapesTotal.WithLabelValues(result).Inc()
	FeedScrapeDuration.Observe(duration.Seconds())
}

// RecordItems records per-scrape item counts. Zero counts are no-ops.
func RecordItems(ingested, skipped, duplicates int) {
	if ingested > 0 {
		FeedEntriesIngestedTotal.Add(float64(ingested))
	}
	if skipped > 0 {
		FeedItemsSkippedTotal.Add(float64(skipped))
	}
	if duplicates > 0 {
		FeedItemsDuplicateTotal.Add(float64(duplicates))
	}
}

func RecordFetchSize(bytes int) {
	FeedFetchBytes.Observe(float64(bytes))
}

// UpdateFeedCounts sets the feed gauges.
func UpdateFeedCounts(total, invalid int) {
	FeedsTotal.Set(float64(total))
	FeedsInvalid.Set(float64(invalid))
}

// UpdateDBConnectionStats copies pool statistics from sql.DB.Stats.
func UpdateDBConnectionStats(stats sql.DBStats) {
	DBConnectionsActive.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}
