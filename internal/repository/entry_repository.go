package repository

import (
	"context"

	"feed-scraper/internal/domain/entity"
)

// EntryWithFeed is an entry together with the display name of its feed.
type EntryWithFeed struct {
	Entry    *entity.Entry
	FeedName string
}

// EntryRepository persists Entry records. Entries are insert-only.
type EntryRepository interface {
	// CreateBatch inserts entries in one transaction and returns how many rows
	// were written. Rows whose (feed_id, dedupe_key) already exists are skipped.
	CreateBatch(ctx context.Context, entries []*entity.Entry) (int64, error)
	// ExistingKeys はバッチでdedupe_keyの存在チェックを行う
	ExistingKeys(ctx context.Context, feedID int64, keys []string) (map[string]bool, error)
	// ListByFeed returns a feed's entries, newest first.
	ListByFeed(ctx context.Context, feedID int64, offset, limit int) ([]*entity.Entry, error)
	CountByFeed(ctx context.Context, feedID int64) (int64, error)
	// Latest returns the n most recently published entries across all feeds.
	Latest(ctx context.Context, n int) ([]EntryWithFeed, error)
	DeleteByFeed(ctx context.Context, feedID int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}
