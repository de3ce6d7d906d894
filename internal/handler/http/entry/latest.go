package entry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"feed-scraper/internal/handler/http/respond"
	entryUC "feed-scraper/internal/usecase/entry"
)

// LatestHandler serves GET /entries/latest?amount=N.
type LatestHandler struct {
	Svc *entryUC.Service
	Loc *time.Location
}

// @Summary      最新エントリ
// @Description  全フィードから公開日時の新しい順に返します
// @Tags         entries
// @Security     BearerAuth
// @Produce      json
// @Param        amount query int false "件数 (省略時は LATEST_ENTRIES_DEFAULT)" minimum(1) maximum(100)
// @Success      200 {array} DTO
// @Failure      400 {string} string "Bad request - invalid amount"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Router       /entries/latest [get]
func (h LatestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	amount := 0
	if s := r.URL.Query().Get("amount"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respond.SafeError(w, http.StatusBadRequest, errors.New("amount must be a positive integer"))
			return
		}
		amount = n
	}

	list, err := h.Svc.Latest(r.Context(), amount)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, ef := range list {
		out = append(out, fromEntryWithFeed(ef, h.Loc))
	}
	respond.JSON(w, http.StatusOK, out)
}
