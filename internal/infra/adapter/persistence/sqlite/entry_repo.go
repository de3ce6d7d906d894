package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/domain/pubdate"
	"feed-scraper/internal/repository"
)

type EntryRepo struct{ db *sqlx.DB }

func NewEntryRepo(db *sqlx.DB) repository.EntryRepository {
	return &EntryRepo{db: db}
}

func (repo *EntryRepo) CreateBatch(ctx context.Context, entries []*entity.Entry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: BeginTxx: %w", err)
	}
	// Commit 後の Rollback は sql.ErrTxDone を返すだけ
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
INSERT INTO entries (feed_id, title, excerpt, source_url, published_at, dedupe_key)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (feed_id, dedupe_key) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: Preparex: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var inserted int64
	for _, e := range entries {
		key := sql.NullString{String: e.DedupeKey, Valid: e.DedupeKey != ""}
		res, err := stmt.ExecContext(ctx,
			e.FeedID, e.Title, e.Excerpt, e.SourceURL, pubdate.FormatStored(e.PublishedAt), key)
		if err != nil {
			return 0, fmt.Errorf("CreateBatch: Exec: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("CreateBatch: Commit: %w", err)
	}
	return inserted, nil
}

func (repo *EntryRepo) ExistingKeys(ctx context.Context, feedID int64, keys []string) (map[string]bool, error) {
	if len(keys) == 0 {
		return make(map[string]bool), nil
	}

	query, args, err := sqlx.In(`SELECT dedupe_key FROM entries WHERE feed_id = ? AND dedupe_key IN (?)`, feedID, keys)
	if err != nil {
		return nil, fmt.Errorf("ExistingKeys: In: %w", err)
	}

	var found []string
	if err := repo.db.SelectContext(ctx, &found, repo.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("ExistingKeys: SelectContext: %w", err)
	}

	result := make(map[string]bool, len(found))
	for _, k := range found {
		result[k] = true
	}
	return result, nil
}

func (repo *EntryRepo) ListByFeed(ctx context.Context, feedID int64, offset, limit int) ([]*entity.Entry, error) {
	const query = `
SELECT id, feed_id, title, excerpt, source_url, published_at, dedupe_key, created_at
FROM entries
WHERE feed_id = ?
ORDER BY published_at DESC, id DESC
LIMIT ? OFFSET ?`
	var rows []entryRow
	if err := repo.db.SelectContext(ctx, &rows, query, feedID, limit, offset); err != nil {
		return nil, fmt.Errorf("ListByFeed: SelectContext: %w", err)
	}

	entries := make([]*entity.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.toEntity()
		if err != nil {
			return nil, fmt.Errorf("ListByFeed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (repo *EntryRepo) CountByFeed(ctx context.Context, feedID int64) (int64, error) {
	var n int64
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM entries WHERE feed_id = ?`, feedID); err != nil {
		return 0, fmt.Errorf("CountByFeed: GetContext: %w", err)
	}
	return n, nil
}

func (repo *EntryRepo) Latest(ctx context.Context, n int) ([]repository.EntryWithFeed, error) {
	const query = `
SELECT e.id, e.feed_id, e.title, e.excerpt, e.source_url, e.published_at, e.dedupe_key, e.created_at,
       f.name AS feed_name
FROM entries e
INNER JOIN feeds f ON f.id = e.feed_id
ORDER BY e.published_at DESC, e.id DESC
LIMIT ?`
	var rows []entryWithFeedRow
	if err := repo.db.SelectContext(ctx, &rows, query, n); err != nil {
		return nil, fmt.Errorf("Latest: SelectContext: %w", err)
	}

	result := make([]repository.EntryWithFeed, 0, len(rows))
	for _, r := range rows {
		e, err := r.toEntity()
		if err != nil {
			return nil, fmt.Errorf("Latest: %w", err)
		}
		result = append(result, repository.EntryWithFeed{Entry: e, FeedName: r.FeedName})
	}
	return result, nil
}

func (repo *EntryRepo) DeleteByFeed(ctx context.Context, feedID int64) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM entries WHERE feed_id = ?`, feedID)
	if err != nil {
		return 0, fmt.Errorf("DeleteByFeed: ExecContext: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (repo *EntryRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: ExecContext: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
