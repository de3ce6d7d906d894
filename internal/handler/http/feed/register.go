package feed

import "net/http"

// Register mounts the /feeds routes. wrap (usually auth.Authz) is applied to
// each handler individually so the mux records the route pattern on the
// request seen by the outer middleware; nil mounts them unwrapped.
func Register(mux *http.ServeMux, d *Deps, wrap func(http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(h http.Handler) http.Handler { return h }
	}
	mux.Handle("GET /feeds", wrap(ListHandler{d}))
	mux.Handle("POST /feeds", wrap(CreateHandler{d}))
	mux.Handle("GET /feeds/{id}", wrap(GetHandler{d}))
	mux.Handle("PUT /feeds/{id}", wrap(UpdateHandler{d}))
	mux.Handle("DELETE /feeds/{id}", wrap(DeleteHandler{d}))
	mux.Handle("POST /feeds/{id}/scrape", wrap(ScrapeHandler{d}))
	mux.Handle("GET /feeds/{id}/entries", wrap(EntriesHandler{d}))
	mux.Handle("DELETE /feeds/{id}/entries", wrap(DeleteEntriesHandler{d}))
}
