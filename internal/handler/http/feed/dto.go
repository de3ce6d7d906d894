// Package feed serves the /feeds routes: registration, inspection, URL
// changes, manual scrapes and per-feed entry listing.
package feed

import (
	"time"

	"feed-scraper/internal/domain/entity"
	entryHTTP "feed-scraper/internal/handler/http/entry"
	feedUC "feed-scraper/internal/usecase/feed"
	"feed-scraper/internal/usecase/scrape"
)

type DTO struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	IsValid    bool    `json:"is_valid"`
	LastScrape *string `json:"last_scrape"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

type InfoDTO struct {
	DTO
	EntryCount int64   `json:"entry_count"`
	NextScrape *string `json:"next_scrape,omitempty"`
}

// ScrapeDTO is the outcome of a scrape triggered through the API.
type ScrapeDTO struct {
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Items      int    `json:"items"`
	NewEntries int    `json:"new_entries"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// MutationDTO is returned by create and update.
type MutationDTO struct {
	Feed   DTO        `json:"feed"`
	Scrape *ScrapeDTO `json:"scrape,omitempty"`
}

func newDTO(f *entity.Feed, loc *time.Location) DTO {
	d := DTO{ID: f.ID, Name: f.Name, URL: f.URL, IsValid: f.IsValid}
	if f.LastScrape != nil {
		s := entryHTTP.FormatTime(*f.LastScrape, loc)
		d.LastScrape = &s
	}
	if !f.CreatedAt.IsZero() {
		d.CreatedAt = entryHTTP.FormatTime(f.CreatedAt, loc)
	}
	return d
}

func newInfoDTO(info *feedUC.Info, loc *time.Location) InfoDTO {
	d := InfoDTO{DTO: newDTO(info.Feed, loc), EntryCount: info.EntryCount}
	if info.NextScrape != nil {
		s := entryHTTP.FormatTime(*info.NextScrape, loc)
		d.NextScrape = &s
	}
	return d
}

// 保存失敗などの内部エラーはレスポンスに出さない
func newScrapeDTO(res scrape.Result) *ScrapeDTO {
	d := &ScrapeDTO{
		Status:     string(res.Status),
		Reason:     string(res.Reason),
		Items:      res.Items,
		NewEntries: res.NewEntries,
		Skipped:    res.Skipped,
		Duplicates: res.Duplicates,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		if res.Reason == scrape.ReasonFetch || res.Reason == scrape.ReasonParse {
			d.Error = res.Err.Error()
		} else {
			d.Error = "internal error"
		}
	}
	return d
}
