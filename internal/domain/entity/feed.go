// Package entity defines the domain records of the scraper: feeds, the
// entries ingested from them, and their validation rules.
package entity

import (
	"strings"
	"time"

	"feed-scraper/internal/domain/pubdate"
)

// maxNameLength bounds the display name of a feed.
const maxNameLength = 255

// Feed is a registered RSS source.
//
// IsValid reflects the outcome of the most recent scrape attempt only.
// LastScrape is the watermark: it moves only after a successful fetch+parse
// and is nil until the first one.
type Feed struct {
	ID         int64
	Name       string
	URL        string
	IsValid    bool
	LastScrape *time.Time
	CreatedAt  time.Time
}

// NewFeed builds an unscraped feed. An empty name falls back to the URL.
func NewFeed(name, rawURL string) *Feed {
	rawURL = strings.TrimSpace(rawURL)
	name = strings.TrimSpace(name)
	if name == "" {
		name = rawURL
	}
	return &Feed{Name: name, URL: rawURL}
}

// Validate checks the fields an operator can set.
func (f *Feed) Validate() error {
	if err := ValidateURL(f.URL); err != nil {
		return err
	}
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(f.Name) > maxNameLength {
		return &ValidationError{Field: "name", Message: "name is too long"}
	}
	return nil
}

// SetURL replaces the URL and reports whether it changed.
// It performs no I/O; callers decide whether to scrape afterwards.
func (f *Feed) SetURL(newURL string) bool {
	newURL = strings.TrimSpace(newURL)
	if newURL == f.URL {
		return false
	}
	f.URL = newURL
	return true
}

// Accepts reports whether an item published at t is newer than the watermark.
// A nil watermark accepts everything.
func (f *Feed) Accepts(t time.Time) bool {
	if f.LastScrape == nil {
		return true
	}
	return t.After(*f.LastScrape)
}

// MarkScraped records a successful scrape with watermark at.
func (f *Feed) MarkScraped(at time.Time) {
	at = pubdate.Normalize(at)
	f.IsValid = true
	f.LastScrape = &at
}

// MarkInvalid records a failed scrape. The watermark is left untouched.
func (f *Feed) MarkInvalid() {
	f.IsValid = false
}

// Clone returns a copy that shares no pointers with f.
func (f *Feed) Clone() *Feed {
	c := *f
	if f.LastScrape != nil {
		ts := *f.LastScrape
		c.LastScrape = &ts
	}
	return &c
}
