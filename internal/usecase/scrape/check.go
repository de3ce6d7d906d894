package scrape

import (
	"context"
	"time"

	"feed-scraper/internal/domain/pubdate"
	"feed-scraper/internal/observability/tracing"
)

// Report summarizes a dry-run fetch of a feed URL.
type Report struct {
	URL          string
	Title        string
	Items        int
	ValidDates   int
	InvalidDates []string
	Newest       *time.Time
	Oldest       *time.Time
	Bytes        int
}

// Check fetches and parses url without touching storage.
// Errors wrap ErrFetch or ErrParse.
func (e *Engine) Check(ctx context.Context, url string) (*Report, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "scrape.Check")
	defer span.End()

	body, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := e.parser.Parse(body)
	if err != nil {
		return nil, err
	}

	rep := &Report{URL: url, Title: doc.Title, Items: len(doc.Items), Bytes: len(body)}
	for _, it := range doc.Items {
		t, err := pubdate.Parse(it.PubDate)
		if err != nil {
			rep.InvalidDates = append(rep.InvalidDates, it.PubDate)
			continue
		}
		rep.ValidDates++
		if rep.Newest == nil || t.After(*rep.Newest) {
			v := t
			rep.Newest = &v
		}
		if rep.Oldest == nil || t.Before(*rep.Oldest) {
			v := t
			rep.Oldest = &v
		}
	}
	return rep, nil
}
