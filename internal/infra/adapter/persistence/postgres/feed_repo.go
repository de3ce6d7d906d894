package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/domain/pubdate"
	"feed-scraper/internal/repository"
)

type FeedRepo struct{ db *sql.DB }

func NewFeedRepo(db *sql.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

const feedColumns = `id, name, url, is_valid, last_scrape, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanFeed は last_scrape (TEXT) を time.Time に変換して読み込む
func scanFeed(s rowScanner) (*entity.Feed, error) {
	var (
		feed       entity.Feed
		lastScrape sql.NullString
	)
	if err := s.Scan(&feed.ID, &feed.Name, &feed.URL, &feed.IsValid, &lastScrape, &feed.CreatedAt); err != nil {
		return nil, err
	}
	if lastScrape.Valid {
		ts, err := pubdate.ParseStoredPtr(&lastScrape.String)
		if err != nil {
			return nil, err
		}
		feed.LastScrape = ts
	}
	return &feed, nil
}

func (repo *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	const query = `
SELECT ` + feedColumns + `
FROM feeds
WHERE id = $1
LIMIT 1`
	feed, err := scanFeed(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) GetByURL(ctx context.Context, url string) (*entity.Feed, error) {
	const query = `
SELECT ` + feedColumns + `
FROM feeds
WHERE url = $1
LIMIT 1`
	feed, err := scanFeed(repo.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByURL: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) List(ctx context.Context) ([]*entity.Feed, error) {
	const query = `
SELECT ` + feedColumns + `
FROM feeds
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// パフォーマンス最適化: メモリ再割り当てを削減するため事前割り当て
	feeds := make([]*entity.Feed, 0, 50)
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

func (repo *FeedRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feeds`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *FeedRepo) Create(ctx context.Context, feed *entity.Feed) error {
	const query = `
INSERT INTO feeds (name, url, is_valid, last_scrape)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		feed.Name, feed.URL, feed.IsValid, pubdate.FormatStoredPtr(feed.LastScrape),
	).Scan(&feed.ID, &feed.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *FeedRepo) Update(ctx context.Context, feed *entity.Feed) error {
	const query = `
UPDATE feeds SET
       name        = $1,
       url         = $2,
       is_valid    = $3,
       last_scrape = $4
WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, query,
		feed.Name, feed.URL, feed.IsValid,
		pubdate.FormatStoredPtr(feed.LastScrape), feed.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: feed %d: %w", feed.ID, entity.ErrNotFound)
	}
	return nil
}

func (repo *FeedRepo) Delete(ctx context.Context, id int64) (err error) {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Delete: BeginTx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE feed_id = $1`, id); err != nil {
		return fmt.Errorf("Delete: entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM feeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = fmt.Errorf("Delete: feed %d: %w", id, entity.ErrNotFound)
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Delete: Commit: %w", err)
	}
	return nil
}
