package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feed-scraper/internal/handler/http/respond"
	workerPkg "feed-scraper/internal/infra/worker"
	"feed-scraper/internal/observability/metrics"
	"feed-scraper/internal/observability/slo"
	"feed-scraper/internal/repository"
	"feed-scraper/internal/usecase/scrape"
)

type cycleRunner interface {
	RunCycle(ctx context.Context) (*scrape.CycleStats, error)
}

// cycleJob is one cron activation: a bounded scrape cycle followed by the
// feed gauges and SLO snapshot.
type cycleJob struct {
	logger    *slog.Logger
	scheduler cycleRunner
	feeds     repository.FeedRepository
	metrics   *workerPkg.WorkerMetrics
	timeout   time.Duration
	now       func() time.Time
}

func (j *cycleJob) Run(parent context.Context) {
	start := j.now()
	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	stats, err := j.scheduler.RunCycle(ctx)
	switch {
	case errors.Is(err, scrape.ErrCycleInProgress):
		j.metrics.RecordJobRun("skipped")
		j.logger.Warn("scrape cycle skipped, previous one still running")
		return
	case err != nil:
		j.metrics.RecordJobRun("failure")
		j.metrics.RecordJobDuration(time.Since(start).Seconds())
		// DSN などをマスクしてログ出力
		j.logger.Error("scrape cycle failed", slog.String("error", respond.SanitizeError(err)))
		return
	}

	j.metrics.RecordJobDuration(time.Since(start).Seconds())
	j.metrics.RecordFeedsProcessed(stats.Feeds)
	j.metrics.RecordEntriesIngested(stats.NewEntries)
	j.metrics.RecordFeedFailures("fetch", stats.FetchFailures)
	j.metrics.RecordFeedFailures("parse", stats.ParseFailures)
	j.metrics.RecordFeedFailures("error", stats.Errors)
	if stats.Aborted {
		j.metrics.RecordJobRun("failure")
	} else {
		j.metrics.RecordJobRun("success")
		j.metrics.RecordLastSuccess()
	}

	j.observeFeeds(parent)
}

// observeFeeds refreshes feeds_total, feeds_invalid and the SLO gauges.
func (j *cycleJob) observeFeeds(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	feeds, err := j.feeds.List(ctx)
	if err != nil {
		j.logger.Warn("could not refresh feed gauges", slog.String("error", respond.SanitizeError(err)))
		return
	}
	invalid := 0
	for _, f := range feeds {
		if !f.IsValid {
			invalid++
		}
	}
	metrics.UpdateFeedCounts(len(feeds), invalid)

	snap := slo.Observe(feeds, j.now())
	if !snap.Met() {
		j.logger.Warn("feed SLO not met",
			slog.Float64("valid_ratio", snap.ValidRatio()),
			slog.Duration("max_staleness", snap.MaxStaleness),
			slog.Int("stale", snap.Stale))
	}
}
