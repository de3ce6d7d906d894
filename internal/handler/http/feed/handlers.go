package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"feed-scraper/internal/common/pagination"
	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/handler/http/auth"
	"feed-scraper/internal/handler/http/pathutil"
	"feed-scraper/internal/handler/http/respond"
	"feed-scraper/internal/observability/logging"
	entryUC "feed-scraper/internal/usecase/entry"
	feedUC "feed-scraper/internal/usecase/feed"
	"feed-scraper/internal/usecase/scrape"
)

// Deps is shared by every feed handler.
type Deps struct {
	Feeds   *feedUC.Service
	Entries *entryUC.Service
	Scraper scrape.FeedScraper
	Loc     *time.Location
	Paging  pagination.Config
}

// writeError maps use case errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pathutil.ErrInvalidID):
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid id"))
	case errors.Is(err, entity.ErrValidationFailed):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, feedUC.ErrFeedNotFound), errors.Is(err, scrape.ErrFeedGone):
		respond.SafeError(w, http.StatusNotFound, feedUC.ErrFeedNotFound)
	case errors.Is(err, feedUC.ErrDuplicateFeed):
		respond.SafeError(w, http.StatusConflict, err)
	case errors.Is(err, scrape.ErrCycleInProgress):
		respond.SafeError(w, http.StatusConflict, err)
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &entity.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}

// runScrape scrapes f and logs store errors, which the response only
// reports as "internal error".
func (d *Deps) runScrape(ctx context.Context, f *entity.Feed) (*ScrapeDTO, error) {
	res, err := d.Scraper.Scrape(ctx, f)
	if errors.Is(err, scrape.ErrFeedGone) {
		return nil, err
	}
	if err != nil {
		logging.FromContext(ctx).Error("scrape via api failed",
			slog.Int64("feed_id", f.ID), slog.Any("error", err))
	}
	return newScrapeDTO(res), nil
}

/* ───────── GET /feeds ───────── */

type ListHandler struct{ *Deps }

// @Summary      フィード一覧
// @Description  登録済みのフィードを ID 順で返します
// @Tags         feeds
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} DTO "フィード一覧"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Router       /feeds [get]
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.Feeds.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]DTO, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, newDTO(f, h.Loc))
	}
	respond.JSON(w, http.StatusOK, out)
}

/* ───────── POST /feeds ───────── */

type CreateHandler struct{ *Deps }

// @Summary      フィード登録
// @Description  フィードを登録し、続けて一度スクレイプします。フェッチ失敗も 201 で返り、結果は scrape に入ります
// @Tags         feeds
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        feed body object true "name と url"
// @Success      201 {object} MutationDTO "登録したフィードとスクレイプ結果"
// @Failure      400 {string} string "Bad request - invalid input"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      409 {string} string "Conflict - feed URL already registered"
// @Router       /feeds [post]
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	f, err := h.Feeds.Register(r.Context(), feedUC.CreateInput{Name: req.Name, URL: req.URL})
	if err != nil {
		writeError(w, err)
		return
	}
	sc, err := h.runScrape(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, MutationDTO{Feed: newDTO(f, h.Loc), Scrape: sc})
}

/* ───────── GET /feeds/{id} ───────── */

type GetHandler struct{ *Deps }

// @Summary      フィード詳細
// @Tags         feeds
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "フィードID"
// @Success      200 {object} InfoDTO "エントリ数と次回スクレイプ時刻を含む"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      404 {string} string "Not found - feed not found"
// @Router       /feeds/{id} [get]
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.Feeds.Info(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, newInfoDTO(info, h.Loc))
}

/* ───────── PUT /feeds/{id} ───────── */

// UpdateHandler renames a feed and/or changes its URL. A changed URL is
// scraped right away.
type UpdateHandler struct{ *Deps }

// @Summary      フィード更新
// @Description  name と url を更新します。URL が変わった場合はスクレイプも実行します
// @Tags         feeds
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path int true "フィードID"
// @Param        feed body object true "更新する項目 (name, url)"
// @Success      200 {object} MutationDTO
// @Failure      400 {string} string "Bad request - invalid input"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      404 {string} string "Not found - feed not found"
// @Failure      409 {string} string "Conflict - feed URL already registered"
// @Router       /feeds/{id} [put]
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Name *string `json:"name"`
		URL  *string `json:"url"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == nil && req.URL == nil {
		writeError(w, &entity.ValidationError{Field: "body", Message: "name or url is required"})
		return
	}

	var f *entity.Feed
	if req.Name != nil {
		if f, err = h.Feeds.Rename(r.Context(), id, *req.Name); err != nil {
			writeError(w, err)
			return
		}
	}

	out := MutationDTO{}
	if req.URL != nil {
		var changed bool
		if f, changed, err = h.Feeds.UpdateURL(r.Context(), id, *req.URL); err != nil {
			writeError(w, err)
			return
		}
		if changed {
			if out.Scrape, err = h.runScrape(r.Context(), f); err != nil {
				writeError(w, err)
				return
			}
		}
	}
	out.Feed = newDTO(f, h.Loc)
	respond.JSON(w, http.StatusOK, out)
}

/* ───────── DELETE /feeds/{id} ───────── */

type DeleteHandler struct{ *Deps }

// @Summary      フィード削除
// @Description  フィードとそのエントリを削除します
// @Tags         feeds
// @Security     BearerAuth
// @Param        id path int true "フィードID"
// @Success      204 "No Content"
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      404 {string} string "Not found - feed not found"
// @Router       /feeds/{id} [delete]
func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Feeds.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	logging.FromContext(r.Context()).Info("feed deleted",
		slog.Int64("feed_id", id), slog.String("user", auth.UserFromContext(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}

/* ───────── POST /feeds/{id}/scrape ───────── */

// ScrapeHandler runs one scrape. A fetch or parse failure is still a 200:
// the outcome is in the body and the feed is marked invalid.
type ScrapeHandler struct{ *Deps }

// @Summary      手動スクレイプ
// @Tags         feeds
// @Security     BearerAuth
// @Produce      json
// @Param        id path int true "フィードID"
// @Success      200 {object} ScrapeDTO
// @Failure      401 {string} string "Authentication required - missing or invalid JWT token"
// @Failure      403 {string} string "Forbidden - admin role required"
// @Failure      429 {string} string "Too many requests - rate limit exceeded"
// @Failure      404 {string} string "Not found - feed not found"
// @Failure      409 {string} string "Conflict - scrape already running"
// @Router       /feeds/{id}/scrape [post]
func (h ScrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := h.Feeds.Load(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	sc, err := h.runScrape(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, MutationDTO{Feed: newDTO(f, h.Loc), Scrape: sc})
}
