// Package observability groups the logging, metrics, tracing and slo
// subpackages shared by the api, worker and feedctl binaries.
//
//	logger := logging.NewLogger()
//	ctx, span := tracing.GetTracer().Start(ctx, "scrape.Feed")
//	defer span.End()
//	metrics.RecordScrape("success", time.Since(start))
package observability
