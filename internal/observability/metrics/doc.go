// Package metrics holds the process-wide Prometheus collectors:
//   - HTTP request metrics for the admin API
//   - scrape metrics (per feed outcome, ingested entries, skipped items)
//   - store gauges and database pool statistics
//
// All collectors are registered on the default registry and served on /metrics.
package metrics
