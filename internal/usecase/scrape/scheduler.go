package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/observability/logging"
	"feed-scraper/internal/observability/tracing"
	"feed-scraper/internal/pkg/config"
	"feed-scraper/internal/repository"
)

// FeedScraper scrapes one feed. *Engine implements it.
type FeedScraper interface {
	Scrape(ctx context.Context, feed *entity.Feed) (Result, error)
}

// SchedulerConfig tunes a cycle.
type SchedulerConfig struct {
	// Parallelism above 1 scrapes that many feeds at once. 1 keeps the
	// cycle strictly sequential.
	Parallelism int
	// FeedTimeout bounds each feed; zero means no per-feed deadline.
	FeedTimeout time.Duration
}

// CycleStats aggregates the results of one cycle.
type CycleStats struct {
	Feeds         int
	Succeeded     int
	Failed        int
	FetchFailures int
	ParseFailures int
	// Errors counts feeds that ended in a store error or vanished mid-cycle.
	Errors     int
	NewEntries int
	Skipped    int
	Duplicates int
	// Aborted is set when the cycle context ended before every feed ran.
	Aborted  bool
	Duration time.Duration
}

func (s *CycleStats) add(res Result) {
	switch {
	case res.OK():
		s.Succeeded++
	case res.Reason == ReasonFetch:
		s.Failed++
		s.FetchFailures++
	case res.Reason == ReasonParse:
		s.Failed++
		s.ParseFailures++
	default:
		s.Errors++
	}
	s.NewEntries += res.NewEntries
	s.Skipped += res.Skipped
	s.Duplicates += res.Duplicates
}

// Scheduler runs scrape cycles over every registered feed. One feed's
// failure never stops the others.
type Scheduler struct {
	feeds       repository.FeedRepository
	scraper     FeedScraper
	parallelism int
	feedTimeout time.Duration
	running     atomic.Bool
}

func NewScheduler(feeds repository.FeedRepository, scraper FeedScraper, cfg SchedulerConfig) *Scheduler {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Scheduler{
		feeds:       feeds,
		scraper:     scraper,
		parallelism: cfg.Parallelism,
		feedTimeout: cfg.FeedTimeout,
	}
}

// RunCycle scrapes all feeds once. It returns an error only when the feed
// list cannot be loaded or another cycle is still running; per-feed outcomes
// are in the stats.
func (s *Scheduler) RunCycle(ctx context.Context) (*CycleStats, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	ctx, span := tracing.GetTracer().Start(ctx, "scrape.Cycle")
	defer span.End()

	logger := logging.FromContext(ctx)

	feeds, err := s.feeds.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list feeds")
		return nil, fmt.Errorf("list feeds: %w", err)
	}

	stats := &CycleStats{Feeds: len(feeds)}
	logger.Info("scrape cycle started",
		slog.Int("feeds", len(feeds)),
		slog.Int("parallelism", s.parallelism))

	if s.parallelism == 1 {
		for _, feed := range feeds {
			if ctx.Err() != nil {
				stats.Aborted = true
				break
			}
			stats.add(s.scrapeOne(ctx, feed, logger))
		}
	} else {
		var mu sync.Mutex
		g := new(errgroup.Group)
		g.SetLimit(s.parallelism)
		for _, feed := range feeds {
			if ctx.Err() != nil {
				stats.Aborted = true
				break
			}
			g.Go(func() error {
				res := s.scrapeOne(ctx, feed, logger)
				mu.Lock()
				stats.add(res)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}
	if ctx.Err() != nil {
		stats.Aborted = true
	}
	stats.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("cycle.feeds", stats.Feeds),
		attribute.Int("cycle.succeeded", stats.Succeeded),
		attribute.Int("cycle.failed", stats.Failed),
		attribute.Int("cycle.new_entries", stats.NewEntries),
		attribute.Bool("cycle.aborted", stats.Aborted),
	)
	logger.Info("scrape cycle finished",
		slog.Int("feeds", stats.Feeds),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Int("errors", stats.Errors),
		slog.Int("new_entries", stats.NewEntries),
		slog.Int("skipped", stats.Skipped),
		slog.Bool("aborted", stats.Aborted),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

func (s *Scheduler) scrapeOne(ctx context.Context, feed *entity.Feed, logger *slog.Logger) Result {
	if s.feedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.feedTimeout)
		defer cancel()
	}

	res, err := s.scraper.Scrape(ctx, feed)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, ErrFeedGone) {
			level = slog.LevelInfo
		}
		logger.Log(ctx, level, "feed scrape error",
			slog.Int64("feed_id", feed.ID),
			slog.String("feed_url", feed.URL),
			slog.Any("error", err))
		if res.Status == "" {
			res = Result{FeedID: feed.ID, Status: StatusFailure, Reason: ReasonStore, Err: err}
		}
	}
	return res
}

// Running reports whether a cycle is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// NextRun returns the next activation of schedule after now in loc.
func NextRun(schedule string, loc *time.Location, now time.Time) (time.Time, error) {
	sched, err := config.CronParser.Parse(schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron schedule %q: %w", schedule, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return sched.Next(now.In(loc)), nil
}
