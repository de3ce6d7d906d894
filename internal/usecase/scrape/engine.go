package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/domain/pubdate"
	"feed-scraper/internal/observability/logging"
	"feed-scraper/internal/observability/metrics"
	"feed-scraper/internal/observability/tracing"
	"feed-scraper/internal/repository"
)

// Watermark selects how LastScrape advances after a successful scrape.
type Watermark string

const (
	// WatermarkWallclock sets LastScrape to the time of the scrape.
	WatermarkWallclock Watermark = "wallclock"
	// WatermarkMaxItemDate sets LastScrape to the newest item date seen.
	WatermarkMaxItemDate Watermark = "max-item-date"
)

// Config tunes the engine.
type Config struct {
	// FetchTimeout bounds the download; zero leaves only the caller's deadline.
	FetchTimeout time.Duration
	Watermark    Watermark
	// Deduplicate stores a dedupe key per entry and drops items already stored.
	Deduplicate bool
}

func DefaultConfig() Config {
	return Config{
		FetchTimeout: 20 * time.Second,
		Watermark:    WatermarkWallclock,
		Deduplicate:  true,
	}
}

// Engine scrapes single feeds. It is safe for concurrent use; scrapes of the
// same feed are serialized.
type Engine struct {
	feeds   repository.FeedRepository
	entries repository.EntryRepository
	fetcher Fetcher
	parser  Parser
	cfg     Config
	locks   *keyedMutex
	now     func() time.Time
}

func NewEngine(
	feeds repository.FeedRepository,
	entries repository.EntryRepository,
	fetcher Fetcher,
	parser Parser,
	cfg Config,
) *Engine {
	if cfg.Watermark == "" {
		cfg.Watermark = WatermarkWallclock
	}
	return &Engine{
		feeds:   feeds,
		entries: entries,
		fetcher: fetcher,
		parser:  parser,
		cfg:     cfg,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// WithClock replaces the wall clock used for the watermark.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Scrape fetches feed, stores the items published after its watermark and
// persists the new validity and watermark. On return *feed holds the
// persisted state.
//
// Fetch and parse failures are reported in Result (the feed is marked
// invalid, its watermark kept) and never as error. The error return is for
// store failures, cancellation and ErrFeedGone.
func (e *Engine) Scrape(ctx context.Context, feed *entity.Feed) (Result, error) {
	start := time.Now()
	res := Result{FeedID: feed.ID}

	ctx, span := tracing.GetTracer().Start(ctx, "scrape.Feed",
		trace.WithAttributes(attribute.Int64("feed.id", feed.ID)))
	defer span.End()

	unlock, err := e.locks.Lock(ctx, feed.ID)
	if err != nil {
		return e.abort(span, res, start, err)
	}
	defer unlock()

	// ロック取得後に最新の状態を読み直す
	current, err := e.feeds.Get(ctx, feed.ID)
	if err != nil {
		return e.abort(span, res, start, fmt.Errorf("reload feed: %w", err))
	}
	if current == nil {
		return e.abort(span, res, start, ErrFeedGone)
	}
	if err := ctx.Err(); err != nil {
		return e.abort(span, res, start, err)
	}

	logger := logging.WithFeed(logging.FromContext(ctx), current.ID, current.URL)
	res, err = e.scrape(ctx, current, res, logger)
	res.Duration = time.Since(start)
	*feed = *current.Clone()

	span.SetAttributes(
		attribute.String("scrape.result", res.metricLabel()),
		attribute.Int("scrape.new_entries", res.NewEntries),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.metricLabel())
	}
	metrics.RecordScrape(res.metricLabel(), res.Duration)
	metrics.RecordItems(res.NewEntries, res.Skipped, res.Duplicates)

	return res, err
}

func (e *Engine) scrape(ctx context.Context, feed *entity.Feed, res Result, logger *slog.Logger) (Result, error) {
	body, err := e.fetch(ctx, feed.URL)
	if err != nil {
		// 呼び出し側のキャンセルはフィードの失敗として扱わない。
		// 期限切れ（FEED_TIMEOUT 等）は応答しないフィードとしてフェッチ失敗にする
		if errors.Is(ctx.Err(), context.Canceled) {
			res.Status, res.Reason, res.Err = StatusFailure, ReasonStore, ctx.Err()
			return res, ctx.Err()
		}
		if !errors.Is(err, ErrFetch) {
			err = fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return e.fail(ctx, feed, res, ReasonFetch, err, logger)
	}
	metrics.RecordFetchSize(len(body))

	doc, err := e.parser.Parse(body)
	if err != nil {
		return e.fail(ctx, feed, res, ReasonParse, err, logger)
	}
	res.Items = len(doc.Items)

	batch, newest := e.collect(feed, doc.Items, &res, logger)

	batch, err = e.dropStored(ctx, feed.ID, batch, &res)
	if err != nil {
		res.Status, res.Reason, res.Err = StatusFailure, ReasonStore, err
		return res, err
	}

	if len(batch) > 0 {
		inserted, err := e.entries.CreateBatch(ctx, batch)
		if err != nil {
			err = fmt.Errorf("store entries: %w", err)
			res.Status, res.Reason, res.Err = StatusFailure, ReasonStore, err
			return res, err
		}
		res.NewEntries = int(inserted)
		// ON CONFLICT で弾かれた分
		res.Duplicates += len(batch) - int(inserted)
	}

	switch e.cfg.Watermark {
	case WatermarkMaxItemDate:
		if newest != nil && feed.Accepts(*newest) {
			feed.MarkScraped(*newest)
		} else {
			feed.IsValid = true
		}
	default:
		feed.MarkScraped(e.now())
	}

	if err := e.persist(ctx, feed); err != nil {
		res.Status, res.Reason, res.Err = StatusFailure, ReasonStore, err
		return res, err
	}

	res.Status = StatusSuccess
	logger.Info("feed scraped",
		slog.Int("items", res.Items),
		slog.Int("new_entries", res.NewEntries),
		slog.Int("skipped", res.Skipped),
		slog.Int("duplicates", res.Duplicates))
	return res, nil
}

func (e *Engine) fetch(ctx context.Context, url string) ([]byte, error) {
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}
	return e.fetcher.Fetch(ctx, url)
}

// collect parses item dates and keeps the items newer than the watermark.
// newest is the latest valid date in the document, accepted or not.
func (e *Engine) collect(feed *entity.Feed, items []Item, res *Result, logger *slog.Logger) ([]*entity.Entry, *time.Time) {
	var (
		batch  []*entity.Entry
		newest *time.Time
	)
	for _, it := range items {
		published, err := pubdate.Parse(it.PubDate)
		if err != nil {
			res.Skipped++
			logger.Warn("skipping item with invalid pubDate",
				slog.String("title", it.Title),
				slog.String("pub_date", it.PubDate),
				slog.Any("error", err))
			continue
		}
		if newest == nil || published.After(*newest) {
			p := published
			newest = &p
		}
		if !feed.Accepts(published) {
			continue
		}
		entry := entity.NewEntry(feed.ID, it.Title, it.Description, it.Link, published)
		if !e.cfg.Deduplicate {
			entry.DedupeKey = ""
		}
		batch = append(batch, entry)
	}
	return batch, newest
}

// dropStored removes entries whose dedupe key repeats within the batch or is
// already stored. A no-op when deduplication is off.
func (e *Engine) dropStored(ctx context.Context, feedID int64, batch []*entity.Entry, res *Result) ([]*entity.Entry, error) {
	if !e.cfg.Deduplicate || len(batch) == 0 {
		return batch, nil
	}

	keys := make([]string, 0, len(batch))
	for _, entry := range batch {
		keys = append(keys, entry.DedupeKey)
	}
	existing, err := e.entries.ExistingKeys(ctx, feedID, keys)
	if err != nil {
		return nil, fmt.Errorf("check existing entries: %w", err)
	}

	seen := make(map[string]bool, len(batch))
	fresh := batch[:0]
	for _, entry := range batch {
		if existing[entry.DedupeKey] || seen[entry.DedupeKey] {
			res.Duplicates++
			continue
		}
		seen[entry.DedupeKey] = true
		fresh = append(fresh, entry)
	}
	return fresh, nil
}

// fail marks the feed invalid and persists it; LastScrape is untouched.
func (e *Engine) fail(ctx context.Context, feed *entity.Feed, res Result, reason Reason, cause error, logger *slog.Logger) (Result, error) {
	feed.MarkInvalid()
	res.Status, res.Reason, res.Err = StatusFailure, reason, cause

	if errors.Is(cause, ErrHostUnavailable) {
		// 未取得のまま無効化される
		logger.Warn("feed not fetched, host circuit open",
			slog.String("reason", string(reason)),
			slog.Any("error", cause))
	} else {
		logger.Warn("feed scrape failed",
			slog.String("reason", string(reason)),
			slog.Any("error", cause))
	}

	if err := e.persist(ctx, feed); err != nil {
		return res, err
	}
	return res, nil
}

// persist writes the feed even if ctx was cancelled meanwhile.
func (e *Engine) persist(ctx context.Context, feed *entity.Feed) error {
	if err := e.feeds.Update(context.WithoutCancel(ctx), feed); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrFeedGone
		}
		return fmt.Errorf("save feed: %w", err)
	}
	return nil
}

func (e *Engine) abort(span trace.Span, res Result, start time.Time, err error) (Result, error) {
	res.Status, res.Reason, res.Err = StatusFailure, ReasonStore, err
	res.Duration = time.Since(start)
	span.RecordError(err)
	span.SetStatus(codes.Error, "error")
	metrics.RecordScrape("error", res.Duration)
	return res, err
}
