package http

import (
	"net/http"
	"strconv"
	"time"

	"feed-scraper/internal/handler/http/pathutil"
	"feed-scraper/internal/handler/http/responsewriter"
	"feed-scraper/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records request count, latency and response size. The route
// label is the matched pattern, read after the mux has run.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		rec := responsewriter.Wrap(w)
		next.ServeHTTP(rec, r)

		metrics.RecordHTTPRequest(
			r.Method,
			pathutil.RouteLabel(r),
			strconv.Itoa(rec.StatusCode()),
			time.Since(start),
			rec.BytesWritten(),
		)
	})
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
