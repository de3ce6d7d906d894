package sqlite

import (
	"database/sql"
	"time"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/domain/pubdate"
)

// feedRow / entryRow は sqlx のスキャン先。時刻は TEXT で保存している
type feedRow struct {
	ID         int64          `db:"id"`
	Name       string         `db:"name"`
	URL        string         `db:"url"`
	IsValid    bool           `db:"is_valid"`
	LastScrape sql.NullString `db:"last_scrape"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r feedRow) toEntity() (*entity.Feed, error) {
	f := &entity.Feed{
		ID:        r.ID,
		Name:      r.Name,
		URL:       r.URL,
		IsValid:   r.IsValid,
		CreatedAt: r.CreatedAt,
	}
	if r.LastScrape.Valid {
		ts, err := pubdate.ParseStoredPtr(&r.LastScrape.String)
		if err != nil {
			return nil, err
		}
		f.LastScrape = ts
	}
	return f, nil
}

type entryRow struct {
	ID          int64          `db:"id"`
	FeedID      int64          `db:"feed_id"`
	Title       string         `db:"title"`
	Excerpt     string         `db:"excerpt"`
	SourceURL   string         `db:"source_url"`
	PublishedAt string         `db:"published_at"`
	DedupeKey   sql.NullString `db:"dedupe_key"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r entryRow) toEntity() (*entity.Entry, error) {
	published, err := pubdate.ParseStored(r.PublishedAt)
	if err != nil {
		return nil, err
	}
	return &entity.Entry{
		ID:          r.ID,
		FeedID:      r.FeedID,
		Title:       r.Title,
		Excerpt:     r.Excerpt,
		SourceURL:   r.SourceURL,
		PublishedAt: published,
		DedupeKey:   r.DedupeKey.String,
		CreatedAt:   r.CreatedAt,
	}, nil
}

type entryWithFeedRow struct {
	entryRow
	FeedName string `db:"feed_name"`
}
