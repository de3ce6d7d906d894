package feed

import (
	"net/http"

	"feed-scraper/internal/common/pagination"
	entryHTTP "feed-scraper/internal/handler/http/entry"
	"feed-scraper/internal/handler/http/pathutil"
	"feed-scraper/internal/handler/http/respond"
)

// EntriesHandler serves GET /feeds/{id}/entries?page=&limit=.
type EntriesHandler struct{ *Deps }

// @Summary      フィードのエントリ一覧
// @Tags         feeds
// @Security     BearerAuth
// @Produce      json
// @Param        id     path     int  true   "フィードID"
// @Param        page   query    int  false  "ページ番号 (1-based)" default(1) minimum(1)
// @Param        limit  query    int  false  "1ページあたりの件数" default(20) minimum(1) maximum(100)
// @Success      200 {object} pagination.Response[entryHTTP.DTO]
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      404 {string} string "Not found - feed not found"
// @Router       /feeds/{id}/entries [get]
func (h EntriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	params, err := pagination.ParseQueryParams(r, h.Paging)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := h.Feeds.Load(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	total, err := h.Entries.CountByFeed(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := h.Entries.ListByFeed(r.Context(), id, params.Offset(), params.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]entryHTTP.DTO, 0, len(list))
	for _, e := range list {
		data = append(data, entryHTTP.NewDTO(e, h.Loc))
	}
	respond.JSON(w, http.StatusOK, pagination.NewResponse(data, params, total))
}

// DeleteEntriesHandler serves DELETE /feeds/{id}/entries. The watermark is
// kept, so the deleted items are not ingested again.
type DeleteEntriesHandler struct{ *Deps }

// @Summary      フィードのエントリ削除
// @Tags         feeds
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "フィードID"
// @Success      200 {object} map[string]int64 "deleted"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Router       /feeds/{id}/entries [delete]
func (h DeleteEntriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.Feeds.Load(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	n, err := h.Entries.DeleteByFeed(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
