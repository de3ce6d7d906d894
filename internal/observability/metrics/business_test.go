package metrics

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// グローバルなコレクタを使うため、値は差分で確認する

func TestRecordScrape(t *testing.T) {
	before := testutil.ToFloat64(FeedScrapesTotal.WithLabelValues("fetch_error"))

	RecordScrape("fetch_error", 250*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(FeedScrapesTotal.WithLabelValues("fetch_error")))
}

func TestRecordItems(t *testing.T) {
	ingested := testutil.ToFloat64(FeedEntriesIngestedTotal)
	skipped := testutil.ToFloat64(FeedItemsSkippedTotal)
	dups := testutil.ToFloat64(FeedItemsDuplicateTotal)

	RecordItems(3, 1, 0)
	RecordItems(0, 0, 2)

	assert.Equal(t, ingested+3, testutil.ToFloat64(FeedEntriesIngestedTotal))
	assert.Equal(t, skipped+1, testutil.ToFloat64(FeedItemsSkippedTotal))
	assert.Equal(t, dups+2, testutil.ToFloat64(FeedItemsDuplicateTotal))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/feeds", "200"))

	RecordHTTPRequest("GET", "/feeds", "200", 15*time.Millisecond, 512)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/feeds", "200")))
}

func TestUpdateGauges(t *testing.T) {
	UpdateFeedCounts(12, 3)
	assert.Equal(t, float64(12), testutil.ToFloat64(FeedsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(FeedsInvalid))

	UpdateDBConnectionStats(sql.DBStats{InUse: 4, Idle: 6})
	assert.Equal(t, float64(4), testutil.ToFloat64(DBConnectionsActive))
	assert.Equal(t, float64(6), testutil.ToFloat64(DBConnectionsIdle))
}
