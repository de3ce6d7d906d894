// Package scraper provides the HTTP fetcher and RSS parser used by the
// scrape engine.
package scraper
