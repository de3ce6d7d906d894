// Package resilience groups the fault tolerance helpers used by the scraper.
//
//   - circuitbreaker: per-host breakers around feed fetches, so a host that
//     keeps failing is skipped until its cool-down expires
//   - retry: exponential backoff for startup dependencies such as the database
//
// Feed fetches themselves are never retried inside a scrape; the next
// scheduled cycle is the retry.
package resilience
