// Package scrape fetches registered feeds, ingests their new items and
// advances each feed's watermark. Engine handles one feed; Scheduler runs a
// cycle over all of them.
package scrape

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch covers transport failures, timeouts and non-200 responses.
	ErrFetch = errors.New("fetch failed")

	// ErrHostUnavailable means the fetcher refused to contact the feed's host
	// because recent requests to it kept failing. It is always wrapped
	// together with ErrFetch, so the feed is still marked invalid.
	ErrHostUnavailable = errors.New("feed host unavailable")

	// ErrParse means the body is not well-formed RSS.
	ErrParse = errors.New("parse failed")

	// ErrCycleInProgress is returned by RunCycle while another cycle runs.
	ErrCycleInProgress = errors.New("scrape cycle already in progress")

	// ErrFeedGone means the feed was deleted before or during the scrape.
	ErrFeedGone = errors.New("feed no longer exists")
)

// StatusError is a non-200 response. Fetchers wrap it together with ErrFetch.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
