package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feed-scraper/internal/config"
	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/repository"
	"feed-scraper/internal/usecase/scrape"
)

// CreateInput represents the input parameters for registering a feed.
// Name defaults to the URL.
type CreateInput struct {
	Name string
	URL  string
}

// Info is a feed together with its ingest statistics.
type Info struct {
	Feed       *entity.Feed
	EntryCount int64
	// NextScrape is nil when no schedule is configured.
	NextScrape *time.Time
}

// Service provides feed management use cases.
//
// None of its methods fetch anything: callers that register a feed or change
// its URL invoke scrape.Engine.Scrape themselves.
type Service struct {
	Feeds   repository.FeedRepository
	Entries repository.EntryRepository

	// Schedule and Location drive Info.NextScrape.
	Schedule string
	Location *time.Location

	// AllowPrivate accepts URLs that resolve to private addresses.
	AllowPrivate bool

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) validateURL(rawURL string) error {
	if s.AllowPrivate {
		return entity.ValidateURL(rawURL)
	}
	return entity.ValidatePublicURL(rawURL)
}

// List returns every registered feed ordered by ID.
func (s *Service) List(ctx context.Context) ([]*entity.Feed, error) {
	feeds, err := s.Feeds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return feeds, nil
}

// Register validates and stores a new feed. The feed starts invalid with no
// watermark until its first successful scrape.
func (s *Service) Register(ctx context.Context, in CreateInput) (*entity.Feed, error) {
	f := entity.NewFeed(in.Name, in.URL)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := s.validateURL(f.URL); err != nil {
		return nil, err
	}

	existing, err := s.Feeds.GetByURL(ctx, f.URL)
	if err != nil {
		return nil, fmt.Errorf("get feed by url: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateFeed
	}

	if err := s.Feeds.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}
	return f, nil
}

// Load returns the feed with id or ErrFeedNotFound.
func (s *Service) Load(ctx context.Context, id int64) (*entity.Feed, error) {
	if id <= 0 {
		return nil, &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	f, err := s.Feeds.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	if f == nil {
		return nil, ErrFeedNotFound
	}
	return f, nil
}

// UpdateURL changes the feed URL and persists it when it differs.
// changed reports whether a scrape of the new URL is due.
func (s *Service) UpdateURL(ctx context.Context, id int64, newURL string) (f *entity.Feed, changed bool, err error) {
	f, err = s.Load(ctx, id)
	if err != nil {
		return nil, false, err
	}

	newURL = strings.TrimSpace(newURL)
	if err := s.validateURL(newURL); err != nil {
		return nil, false, err
	}
	if !f.SetURL(newURL) {
		return f, false, nil
	}

	other, err := s.Feeds.GetByURL(ctx, newURL)
	if err != nil {
		return nil, false, fmt.Errorf("get feed by url: %w", err)
	}
	if other != nil && other.ID != f.ID {
		return nil, false, ErrDuplicateFeed
	}

	if err := s.Save(ctx, f); err != nil {
		return nil, false, err
	}
	return f, true, nil
}

// Rename sets the display name of a feed.
func (s *Service) Rename(ctx context.Context, id int64, name string) (*entity.Feed, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "is required"}
	}
	f, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Name == name {
		return f, nil
	}
	f.Name = name
	if err := s.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Save persists the feed as is.
func (s *Service) Save(ctx context.Context, f *entity.Feed) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := s.Feeds.Update(ctx, f); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrFeedNotFound
		}
		return fmt.Errorf("update feed: %w", err)
	}
	return nil
}

// Delete removes a feed and all of its entries.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	if err := s.Feeds.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrFeedNotFound
		}
		return fmt.Errorf("delete feed: %w", err)
	}
	return nil
}

// Info returns the feed, its entry count and the next scheduled scrape.
func (s *Service) Info(ctx context.Context, id int64) (*Info, error) {
	f, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.Entries.CountByFeed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}

	info := &Info{Feed: f, EntryCount: count}
	if s.Schedule != "" {
		next, err := scrape.NextRun(s.Schedule, s.Location, s.now())
		if err != nil {
			return nil, err
		}
		info.NextScrape = &next
	}
	return info, nil
}

// Seed registers the listed feeds that are not registered yet and returns
// the new ones. Existing URLs are left untouched.
func (s *Service) Seed(ctx context.Context, specs []config.FeedSpec) ([]*entity.Feed, error) {
	var created []*entity.Feed
	for _, spec := range specs {
		f, err := s.Register(ctx, CreateInput{Name: spec.Name, URL: spec.URL})
		if errors.Is(err, ErrDuplicateFeed) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", spec.URL, err)
		}
		created = append(created, f)
	}
	return created, nil
}
