package scrape

import (
	"fmt"
	"time"
)

// Status is the outcome of one scrape.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Reason qualifies a failure.
type Reason string

const (
	ReasonNone  Reason = ""
	ReasonFetch Reason = "fetch"
	ReasonParse Reason = "parse"
	// ReasonStore is a persistence failure; the feed is not advanced.
	ReasonStore Reason = "store"
)

// Result reports what one Scrape call did.
type Result struct {
	FeedID     int64
	Status     Status
	Reason     Reason
	Items      int
	NewEntries int
	// Skipped counts items dropped for an unparsable pubDate.
	Skipped int
	// Duplicates counts items already stored under the same dedupe key.
	Duplicates int
	Err        error
	Duration   time.Duration
}

func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

func (r Result) String() string {
	if r.OK() {
		return fmt.Sprintf("feed %d: success, %d new, %d skipped, %d duplicate of %d items (%s)",
			r.FeedID, r.NewEntries, r.Skipped, r.Duplicates, r.Items, r.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("feed %d: %s failure: %v", r.FeedID, r.Reason, r.Err)
}

// metricLabel is the feed_scrapes_total result label.
func (r Result) metricLabel() string {
	switch {
	case r.OK():
		return "success"
	case r.Reason == ReasonFetch:
		return "fetch_error"
	case r.Reason == ReasonParse:
		return "parse_error"
	default:
		return "error"
	}
}
