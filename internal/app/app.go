// Package app wires the stores, the scrape engine and the use case services
// shared by cmd/api, cmd/worker and cmd/feedctl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"feed-scraper/internal/config"
	"feed-scraper/internal/domain/entity"
	pgRepo "feed-scraper/internal/infra/adapter/persistence/postgres"
	sqliteRepo "feed-scraper/internal/infra/adapter/persistence/sqlite"
	"feed-scraper/internal/infra/db"
	"feed-scraper/internal/infra/scraper"
	"feed-scraper/internal/repository"
	entryUC "feed-scraper/internal/usecase/entry"
	feedUC "feed-scraper/internal/usecase/feed"
	"feed-scraper/internal/usecase/scrape"
)

// Stores is an open database with the repositories of its dialect.
type Stores struct {
	DB      *sqlx.DB
	Dialect db.Dialect
	Feeds   repository.FeedRepository
	Entries repository.EntryRepository
}

// OpenStores opens the database described by opts and applies the schema.
func OpenStores(ctx context.Context, opts db.Options) (*Stores, error) {
	conn, err := db.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(conn.DB, opts.Dialect); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Stores{DB: conn, Dialect: opts.Dialect}
	switch opts.Dialect {
	case db.SQLite:
		s.Feeds = sqliteRepo.NewFeedRepo(conn)
		s.Entries = sqliteRepo.NewEntryRepo(conn)
	default:
		s.Feeds = pgRepo.NewFeedRepo(conn.DB)
		s.Entries = pgRepo.NewEntryRepo(conn.DB)
	}
	return s, nil
}

// OpenStoresFromEnv reads DB_DRIVER, DATABASE_URL and SQLITE_PATH.
func OpenStoresFromEnv(ctx context.Context) (*Stores, error) {
	opts, err := db.OptionsFromEnv()
	if err != nil {
		return nil, fmt.Errorf("database options: %w", err)
	}
	return OpenStores(ctx, opts)
}

func (s *Stores) Close() error {
	return s.DB.Close()
}

// Scraping bundles the engine with the fetcher whose circuit breakers the
// health endpoints report.
type Scraping struct {
	Engine  *scrape.Engine
	Fetcher *scraper.HTTPFetcher
}

// NewScraping builds the HTTP fetcher, the RSS parser and the engine.
func NewScraping(cfg *config.AppConfig, s *Stores) *Scraping {
	fetcher := scraper.NewHTTPFetcher(scraper.FetcherConfig{
		Timeout:      cfg.Scrape.FetchTimeout,
		MaxBodyBytes: cfg.Scrape.MaxBodyBytes,
		UserAgent:    cfg.Scrape.UserAgent,
		AllowPrivate: cfg.AllowPrivateFeeds,
	})
	engine := scrape.NewEngine(s.Feeds, s.Entries, fetcher, scraper.NewRSSParser(), EngineConfig(cfg))
	return &Scraping{Engine: engine, Fetcher: fetcher}
}

// EngineConfig maps the SCRAPE_* settings onto scrape.Config.
func EngineConfig(cfg *config.AppConfig) scrape.Config {
	ec := scrape.DefaultConfig()
	ec.FetchTimeout = cfg.Scrape.FetchTimeout
	ec.Deduplicate = cfg.Scrape.Deduplicate
	if cfg.Scrape.Watermark == config.WatermarkMaxItemDate {
		ec.Watermark = scrape.WatermarkMaxItemDate
	}
	return ec
}

// Services returns the feed and entry use cases over s. schedule may be
// empty when next-run times are not needed.
func Services(cfg *config.AppConfig, s *Stores, schedule string) (*feedUC.Service, *entryUC.Service) {
	feeds := &feedUC.Service{
		Feeds:        s.Feeds,
		Entries:      s.Entries,
		Schedule:     schedule,
		Location:     cfg.OutputLocation(),
		AllowPrivate: cfg.AllowPrivateFeeds,
	}
	entries := &entryUC.Service{Repo: s.Entries, LatestDefault: cfg.LatestEntriesDefault}
	return feeds, entries
}

// SeedFromFile registers the feeds listed in path (FEEDS_FILE). An empty
// path is a no-op.
func SeedFromFile(ctx context.Context, logger *slog.Logger, svc *feedUC.Service, path string) ([]*entity.Feed, error) {
	if path == "" {
		return nil, nil
	}
	specs, err := config.LoadFeeds(path)
	if err != nil {
		return nil, err
	}
	created, err := svc.Seed(ctx, specs)
	logger.Info("feeds seeded",
		slog.String("file", path),
		slog.Int("listed", len(specs)),
		slog.Int("created", len(created)))
	return created, err
}
