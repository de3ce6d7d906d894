package entry

import (
	"net/http"
	"time"

	entryUC "feed-scraper/internal/usecase/entry"
)

// Register mounts the entry routes, each wrapped by wrap when non-nil.
func Register(mux *http.ServeMux, svc *entryUC.Service, loc *time.Location, wrap func(http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(h http.Handler) http.Handler { return h }
	}
	mux.Handle("GET /entries/latest", wrap(LatestHandler{Svc: svc, Loc: loc}))
	mux.Handle("DELETE /entries", wrap(ResetHandler{Svc: svc}))
}
