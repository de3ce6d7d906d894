package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/domain/pubdate"
	"feed-scraper/internal/repository"
)

type EntryRepo struct{ db *sql.DB }

func NewEntryRepo(db *sql.DB) repository.EntryRepository {
	return &EntryRepo{db: db}
}

const entryColumns = `e.id, e.feed_id, e.title, e.excerpt, e.source_url, e.published_at, COALESCE(e.dedupe_key, ''), e.created_at`

func scanEntry(s rowScanner, extra ...any) (*entity.Entry, error) {
	var (
		e         entity.Entry
		published string
	)
	dest := append([]any{&e.ID, &e.FeedID, &e.Title, &e.Excerpt, &e.SourceURL, &published, &e.DedupeKey, &e.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	ts, err := pubdate.ParseStored(published)
	if err != nil {
		return nil, err
	}
	e.PublishedAt = ts
	return &e, nil
}

func nullableKey(key string) sql.NullString {
	return sql.NullString{String: key, Valid: key != ""}
}

func (repo *EntryRepo) CreateBatch(ctx context.Context, entries []*entity.Entry) (inserted int64, err error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: BeginTx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `
INSERT INTO entries (feed_id, title, excerpt, source_url, published_at, dedupe_key)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (feed_id, dedupe_key) DO NOTHING`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("CreateBatch: Prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		res, execErr := stmt.ExecContext(ctx,
			e.FeedID, e.Title, e.Excerpt, e.SourceURL,
			pubdate.FormatStored(e.PublishedAt), nullableKey(e.DedupeKey),
		)
		if execErr != nil {
			err = fmt.Errorf("CreateBatch: Exec: %w", execErr)
			return 0, err
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("CreateBatch: Commit: %w", err)
	}
	return inserted, nil
}

func (repo *EntryRepo) ExistingKeys(ctx context.Context, feedID int64, keys []string) (map[string]bool, error) {
	if len(keys) == 0 {
		return make(map[string]bool), nil
	}

	const query = `SELECT dedupe_key FROM entries WHERE feed_id = $1 AND dedupe_key = ANY($2)`
	rows, err := repo.db.QueryContext(ctx, query, feedID, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("ExistingKeys: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]bool, len(keys))
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("ExistingKeys: Scan: %w", err)
		}
		result[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExistingKeys: rows.Err: %w", err)
	}
	return result, nil
}

func (repo *EntryRepo) ListByFeed(ctx context.Context, feedID int64, offset, limit int) ([]*entity.Entry, error) {
	const query = `
SELECT ` + entryColumns + `
FROM entries e
WHERE e.feed_id = $1
ORDER BY e.published_at DESC, e.id DESC
LIMIT $2 OFFSET $3`
	rows, err := repo.db.QueryContext(ctx, query, feedID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListByFeed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByFeed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (repo *EntryRepo) CountByFeed(ctx context.Context, feedID int64) (int64, error) {
	var n int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE feed_id = $1`, feedID).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountByFeed: %w", err)
	}
	return n, nil
}

func (repo *EntryRepo) Latest(ctx context.Context, n int) ([]repository.EntryWithFeed, error) {
	const query = `
SELECT ` + entryColumns + `, f.name
FROM entries e
INNER JOIN feeds f ON f.id = e.feed_id
ORDER BY e.published_at DESC, e.id DESC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]repository.EntryWithFeed, 0, n)
	for rows.Next() {
		var feedName string
		e, err := scanEntry(rows, &feedName)
		if err != nil {
			return nil, fmt.Errorf("Latest: %w", err)
		}
		result = append(result, repository.EntryWithFeed{Entry: e, FeedName: feedName})
	}
	return result, rows.Err()
}

func (repo *EntryRepo) DeleteByFeed(ctx context.Context, feedID int64) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM entries WHERE feed_id = $1`, feedID)
	if err != nil {
		return 0, fmt.Errorf("DeleteByFeed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (repo *EntryRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("DeleteAll: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
