package entry

import (
	"log/slog"
	"net/http"

	"feed-scraper/internal/handler/http/auth"
	"feed-scraper/internal/handler/http/respond"
	"feed-scraper/internal/observability/logging"
	entryUC "feed-scraper/internal/usecase/entry"
)

// ResetHandler serves DELETE /entries. Feeds and their watermarks stay.
type ResetHandler struct{ Svc *entryUC.Service }

// @Summary      全エントリ削除
// @Tags         entries
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} map[string]int64 "deleted"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Router       /entries [delete]
func (h ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.Reset(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	// 全件削除は監査用に残す
	logging.FromContext(r.Context()).Warn("all entries deleted",
		slog.Int64("deleted", n), slog.String("user", auth.UserFromContext(r.Context())))
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
