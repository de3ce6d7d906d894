package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"feed-scraper/internal/domain/pubdate"
	"feed-scraper/internal/utils/text"
)

// Entry is a single item ingested from a Feed. Entries are never updated.
type Entry struct {
	ID          int64
	FeedID      int64
	Title       string
	Excerpt     string
	SourceURL   string
	PublishedAt time.Time
	// DedupeKey is empty when deduplication is disabled.
	DedupeKey string
	CreatedAt time.Time
}

// NewEntry builds an Entry from raw item fields. The title is stored as
// given apart from surrounding whitespace, the description is reduced to
// plain text and publishedAt is normalized.
func NewEntry(feedID int64, title, description, link string, publishedAt time.Time) *Entry {
	publishedAt = pubdate.Normalize(publishedAt)
	link = strings.TrimSpace(link)
	return &Entry{
		FeedID:      feedID,
		Title:       strings.TrimSpace(title),
		Excerpt:     text.StripTags(description),
		SourceURL:   link,
		PublishedAt: publishedAt,
		DedupeKey:   DedupeKey(link, publishedAt),
	}
}

// DedupeKey identifies an item within a feed: sha256 of link and stored date.
func DedupeKey(sourceURL string, publishedAt time.Time) string {
	sum := sha256.Sum256([]byte(sourceURL + "\n" + pubdate.FormatStored(publishedAt)))
	return hex.EncodeToString(sum[:])
}
