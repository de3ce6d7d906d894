// Package entry provides read and maintenance use cases for ingested entries.
package entry

import (
	"context"
	"fmt"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/repository"
)

const (
	// DefaultLatest is used when LatestDefault is unset.
	DefaultLatest = 5
	// MaxLatest caps the amount of a Latest query.
	MaxLatest = 100
)

// Service provides entry queries and deletion.
type Service struct {
	Repo repository.EntryRepository
	// LatestDefault is the amount used by Latest when n <= 0.
	LatestDefault int
}

// Latest returns the n most recently published entries across all feeds.
func (s *Service) Latest(ctx context.Context, n int) ([]repository.EntryWithFeed, error) {
	if n <= 0 {
		n = s.LatestDefault
		if n <= 0 {
			n = DefaultLatest
		}
	}
	if n > MaxLatest {
		n = MaxLatest
	}
	entries, err := s.Repo.Latest(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("latest entries: %w", err)
	}
	return entries, nil
}

// ListByFeed returns one page of a feed's entries, newest first.
func (s *Service) ListByFeed(ctx context.Context, feedID int64, offset, limit int) ([]*entity.Entry, error) {
	if feedID <= 0 {
		return nil, &entity.ValidationError{Field: "feed_id", Message: "must be positive"}
	}
	if offset < 0 || limit <= 0 {
		return nil, &entity.ValidationError{Field: "limit", Message: "invalid pagination"}
	}
	entries, err := s.Repo.ListByFeed(ctx, feedID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (s *Service) CountByFeed(ctx context.Context, feedID int64) (int64, error) {
	n, err := s.Repo.CountByFeed(ctx, feedID)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// DeleteByFeed removes every entry of one feed and returns how many were deleted.
// The feed keeps its watermark, so older items are not ingested again.
func (s *Service) DeleteByFeed(ctx context.Context, feedID int64) (int64, error) {
	if feedID <= 0 {
		return 0, &entity.ValidationError{Field: "feed_id", Message: "must be positive"}
	}
	n, err := s.Repo.DeleteByFeed(ctx, feedID)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return n, nil
}

// Reset deletes all entries of all feeds.
func (s *Service) Reset(ctx context.Context) (int64, error) {
	n, err := s.Repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all entries: %w", err)
	}
	return n, nil
}
