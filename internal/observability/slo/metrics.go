// Package slo tracks the freshness objectives of the feed store.
package slo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feed-scraper/internal/domain/entity"
)

// Objectives for an hourly scrape cadence.
const (
	// ValidFeedsSLO is the minimum share of feeds whose last scrape succeeded.
	ValidFeedsSLO = 0.95

	// FreshnessSLO is the maximum age of a valid feed's watermark: one missed
	// cycle plus slack.
	FreshnessSLO = 2 * time.Hour
)

var (
	SLOValidFeedsRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_valid_feeds_ratio",
			Help: "Share of feeds whose last scrape succeeded (0-1), target: 0.95",
		},
	)

	SLOMaxStaleness = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_max_staleness_seconds",
			Help: "Age of the oldest valid feed watermark in seconds, target: <= 7200",
		},
	)

	SLOStaleFeeds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_stale_feeds",
			Help: "Number of feeds never scraped or older than the freshness objective",
		},
	)
)

// Snapshot is the objective state computed from one feed listing.
type Snapshot struct {
	Total        int
	Valid        int
	Stale        int
	MaxStaleness time.Duration
}

// ValidRatio is 1 for an empty store.
func (s Snapshot) ValidRatio() float64 {
	if s.Total == 0 {
		return 1
	}
	return float64(s.Valid) / float64(s.Total)
}

// Met reports whether both objectives hold.
func (s Snapshot) Met() bool {
	return s.ValidRatio() >= ValidFeedsSLO && s.MaxStaleness <= FreshnessSLO
}

// Compute derives a Snapshot without touching the gauges.
func Compute(feeds []*entity.Feed, now time.Time) Snapshot {
	s := Snapshot{Total: len(feeds)}
	for _, f := range feeds {
		if f.LastScrape == nil {
			s.Stale++
			continue
		}
		age := now.Sub(*f.LastScrape)
		if age > FreshnessSLO {
			s.Stale++
		}
		if !f.IsValid {
			continue
		}
		s.Valid++
		if age > s.MaxStaleness {
			s.MaxStaleness = age
		}
	}
	return s
}

// Observe computes the snapshot and publishes it.
func Observe(feeds []*entity.Feed, now time.Time) Snapshot {
	s := Compute(feeds, now)
	SLOValidFeedsRatio.Set(s.ValidRatio())
	SLOMaxStaleness.Set(s.MaxStaleness.Seconds())
	SLOStaleFeeds.Set(float64(s.Stale))
	return s
}
