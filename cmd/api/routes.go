package main

import (
	"log/slog"
	"net/http"
	"time"

	"feed-scraper/internal/common/pagination"
	hhttp "feed-scraper/internal/handler/http"
	hauth "feed-scraper/internal/handler/http/auth"
	hentry "feed-scraper/internal/handler/http/entry"
	hfeed "feed-scraper/internal/handler/http/feed"
	hmiddleware "feed-scraper/internal/handler/http/middleware"
	"feed-scraper/internal/handler/http/requestid"
	"feed-scraper/internal/observability/tracing"
	entryUC "feed-scraper/internal/usecase/entry"
	feedUC "feed-scraper/internal/usecase/feed"
	"feed-scraper/internal/usecase/scrape"
)

type serverDeps struct {
	logger   *slog.Logger
	version  string
	secret   []byte
	db       hhttp.Pinger
	breakers func() []string
	feeds    *feedUC.Service
	entries  *entryUC.Service
	scraper  scrape.FeedScraper
	loc      *time.Location
	paging   pagination.Config
	// limiter may be nil (no rate limiting).
	limiter *hmiddleware.IPRateLimiter
}

// newHandler builds the routes and the middleware chain:
// request ID -> rate limit -> recover -> logging -> body limit -> tracing -> metrics -> mux.
// Authentication wraps each non-probe route inside the mux.
func newHandler(d serverDeps) http.Handler {
	mux := http.NewServeMux()

	// 認証不要
	mux.Handle("GET /health", &hhttp.HealthHandler{DB: d.db, Version: d.version, Breakers: d.breakers})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: d.db})
	mux.HandleFunc("GET /live", hhttp.LiveHandler)
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	authz := hauth.Authz(d.secret)
	hfeed.Register(mux, &hfeed.Deps{
		Feeds:   d.feeds,
		Entries: d.entries,
		Scraper: d.scraper,
		Loc:     d.loc,
		Paging:  d.paging,
	}, authz)
	hentry.Register(mux, d.entries, d.loc, authz)

	mws := []hhttp.Middleware{requestid.Middleware}
	if d.limiter != nil {
		mws = append(mws, d.limiter.Middleware)
	}
	mws = append(mws,
		hhttp.Recover(d.logger),
		hhttp.Logging(d.logger),
		hhttp.LimitRequestBody(hhttp.DefaultMaxBodyBytes),
		tracing.Middleware,
		hhttp.Metrics,
	)
	return hhttp.Chain(mux, mws...)
}
