package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/domain/pubdate"
	"feed-scraper/internal/repository"
)

type FeedRepo struct{ db *sqlx.DB }

func NewFeedRepo(db *sqlx.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

func (repo *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	const query = `
SELECT id, name, url, is_valid, last_scrape, created_at
FROM feeds
WHERE id = ?
LIMIT 1`
	var row feedRow
	err := repo.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: GetContext: %w", err)
	}
	return row.toEntity()
}

func (repo *FeedRepo) GetByURL(ctx context.Context, url string) (*entity.Feed, error) {
	const query = `
SELECT id, name, url, is_valid, last_scrape, created_at
FROM feeds
WHERE url = ?
LIMIT 1`
	var row feedRow
	err := repo.db.GetContext(ctx, &row, query, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByURL: GetContext: %w", err)
	}
	return row.toEntity()
}

func (repo *FeedRepo) List(ctx context.Context) ([]*entity.Feed, error) {
	const query = `
SELECT
    id,
    name,
    url,
    is_valid,
    last_scrape,
    created_at
FROM feeds
ORDER BY id ASC
`
	var rows []feedRow
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("List: SelectContext: %w", err)
	}

	feeds := make([]*entity.Feed, 0, len(rows))
	for _, r := range rows {
		f, err := r.toEntity()
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, nil
}

func (repo *FeedRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM feeds`); err != nil {
		return 0, fmt.Errorf("Count: GetContext: %w", err)
	}
	return n, nil
}

func (repo *FeedRepo) Create(ctx context.Context, feed *entity.Feed) error {
	const query = `
INSERT INTO feeds (name, url, is_valid, last_scrape)
VALUES (?, ?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query,
		feed.Name, feed.URL, feed.IsValid, pubdate.FormatStoredPtr(feed.LastScrape))
	if err != nil {
		return fmt.Errorf("Create: ExecContext: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	feed.ID = id

	if err := repo.db.GetContext(ctx, &feed.CreatedAt, `SELECT created_at FROM feeds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("Create: created_at: %w", err)
	}
	return nil
}

func (repo *FeedRepo) Update(ctx context.Context, feed *entity.Feed) error {
	const query = `
UPDATE feeds SET
       name        = ?,
       url         = ?,
       is_valid    = ?,
       last_scrape = ?
WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query,
		feed.Name, feed.URL, feed.IsValid, pubdate.FormatStoredPtr(feed.LastScrape), feed.ID)
	if err != nil {
		return fmt.Errorf("Update: ExecContext: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: feed %d: %w", feed.ID, entity.ErrNotFound)
	}
	return nil
}

func (repo *FeedRepo) Delete(ctx context.Context, id int64) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Delete: BeginTxx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE feed_id = ?`, id); err != nil {
		return fmt.Errorf("Delete: entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: feed %d: %w", id, entity.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Delete: Commit: %w", err)
	}
	return nil
}
