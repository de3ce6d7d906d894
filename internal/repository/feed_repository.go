package repository

import (
	"context"

	"feed-scraper/internal/domain/entity"
)

// FeedRepository persists Feed records.
//
// Get and GetByURL return (nil, nil) when no row matches.
type FeedRepository interface {
	Get(ctx context.Context, id int64) (*entity.Feed, error)
	GetByURL(ctx context.Context, url string) (*entity.Feed, error)
	List(ctx context.Context) ([]*entity.Feed, error)
	Count(ctx context.Context) (int64, error)
	// Create inserts the feed and fills in ID and CreatedAt.
	Create(ctx context.Context, feed *entity.Feed) error
	// Update writes name, url, is_valid and last_scrape.
	// Returns entity.ErrNotFound when the feed no longer exists.
	Update(ctx context.Context, feed *entity.Feed) error
	// Delete removes the feed and all of its entries in one transaction.
	// Returns entity.ErrNotFound when the feed does not exist.
	Delete(ctx context.Context, id int64) error
}
