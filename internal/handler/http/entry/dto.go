// Package entry serves the cross-feed entry endpoints and the entry JSON
// representation shared with the feed handlers.
package entry

import (
	"time"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/repository"
)

type DTO struct {
	ID          int64  `json:"id"`
	FeedID      int64  `json:"feed_id"`
	FeedName    string `json:"feed_name,omitempty"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

// NewDTO renders publishedAt in loc.
func NewDTO(e *entity.Entry, loc *time.Location) DTO {
	return DTO{
		ID:          e.ID,
		FeedID:      e.FeedID,
		Title:       e.Title,
		Excerpt:     e.Excerpt,
		URL:         e.SourceURL,
		PublishedAt: FormatTime(e.PublishedAt, loc),
	}
}

func fromEntryWithFeed(ef repository.EntryWithFeed, loc *time.Location) DTO {
	d := NewDTO(ef.Entry, loc)
	d.FeedName = ef.FeedName
	return d
}

// FormatTime renders t as RFC 3339 in loc (UTC when loc is nil).
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.RFC3339)
}
