package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-scraper/internal/common/pagination"
	"feed-scraper/internal/domain/entity"
	hauth "feed-scraper/internal/handler/http/auth"
	hmiddleware "feed-scraper/internal/handler/http/middleware"
	"feed-scraper/internal/handler/http/requestid"
	"feed-scraper/internal/repository"
	entryUC "feed-scraper/internal/usecase/entry"
	feedUC "feed-scraper/internal/usecase/feed"
	"feed-scraper/internal/usecase/scrape"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

// 空のリポジトリ
type emptyFeeds struct{}

func (emptyFeeds) Get(context.Context, int64) (*entity.Feed, error)       { return nil, nil }
func (emptyFeeds) GetByURL(context.Context, string) (*entity.Feed, error) { return nil, nil }
func (emptyFeeds) List(context.Context) ([]*entity.Feed, error)           { return nil, nil }
func (emptyFeeds) Count(context.Context) (int64, error)                   { return 0, nil }
func (emptyFeeds) Create(context.Context, *entity.Feed) error             { return nil }
func (emptyFeeds) Update(context.Context, *entity.Feed) error             { return nil }
func (emptyFeeds) Delete(context.Context, int64) error                    { return entity.ErrNotFound }

type emptyEntries struct{}

func (emptyEntries) CreateBatch(context.Context, []*entity.Entry) (int64, error) { return 0, nil }
func (emptyEntries) ExistingKeys(context.Context, int64, []string) (map[string]bool, error) {
	return nil, nil
}
func (emptyEntries) ListByFeed(context.Context, int64, int, int) ([]*entity.Entry, error) {
	return nil, nil
}
func (emptyEntries) CountByFeed(context.Context, int64) (int64, error) { return 0, nil }
func (emptyEntries) Latest(context.Context, int) ([]repository.EntryWithFeed, error) {
	return nil, nil
}
func (emptyEntries) DeleteByFeed(context.Context, int64) (int64, error) { return 0, nil }
func (emptyEntries) DeleteAll(context.Context) (int64, error)           { return 3, nil }

type noScrape struct{}

func (noScrape) Scrape(_ context.Context, f *entity.Feed) (scrape.Result, error) {
	return scrape.Result{FeedID: f.ID, Status: scrape.StatusSuccess}, nil
}

func testHandler(limiter *hmiddleware.IPRateLimiter) http.Handler {
	return newHandler(serverDeps{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		version: "test",
		secret:  []byte(testSecret),
		db:      okPinger{},
		feeds:   &feedUC.Service{Feeds: emptyFeeds{}, Entries: emptyEntries{}},
		entries: &entryUC.Service{Repo: emptyEntries{}},
		scraper: noScrape{},
		loc:     time.UTC,
		paging:  pagination.DefaultConfig(),
		limiter: limiter,
	})
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := hauth.IssueToken([]byte(testSecret), "tester", role, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRoutes_PublicProbes(t *testing.T) {
	h := testHandler(nil)
	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(requestid.RequestIDHeader))
		})
	}
}

func TestRoutes_Auth(t *testing.T) {
	h := testHandler(nil)
	tests := []struct {
		name     string
		method   string
		path     string
		auth     string
		wantCode int
	}{
		{name: "no token", method: http.MethodGet, path: "/feeds", wantCode: http.StatusUnauthorized},
		{name: "garbage token", method: http.MethodGet, path: "/feeds", auth: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "admin lists feeds", method: http.MethodGet, path: "/feeds", auth: "admin", wantCode: http.StatusOK},
		{name: "viewer forbidden", method: http.MethodDelete, path: "/entries", auth: "viewer", wantCode: http.StatusForbidden},
		{name: "admin resets entries", method: http.MethodDelete, path: "/entries", auth: "admin", wantCode: http.StatusOK},
		{name: "unknown feed", method: http.MethodDelete, path: "/feeds/4", auth: "admin", wantCode: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/nope", auth: "admin", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			switch {
			case strings.HasPrefix(tt.auth, "Bearer "):
				req.Header.Set("Authorization", tt.auth)
			case tt.auth != "":
				req.Header.Set("Authorization", token(t, tt.auth))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestRoutes_BodyLimit(t *testing.T) {
	h := testHandler(nil)
	body := `{"url":"https://example.com/` + strings.Repeat("a", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/feeds", strings.NewReader(body))
	req.Header.Set("Authorization", token(t, hauth.RoleAdmin))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_RateLimited(t *testing.T) {
	h := testHandler(hmiddleware.NewIPRateLimiter(1, 2, nil))

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

// 各ハンドラの @Router 注釈が実際にマウントされたルートを指していること。
func TestRoutes_AnnotatedRoutesAreMounted(t *testing.T) {
	routerLine := regexp.MustCompile(`@Router\s+(\S+)\s+\[(\w+)\]`)
	files, err := filepath.Glob("../../internal/handler/http/*/*.go")
	require.NoError(t, err)

	h := testHandler(nil)
	seen := 0
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		src, err := os.ReadFile(file)
		require.NoError(t, err)
		for _, m := range routerLine.FindAllStringSubmatch(string(src), -1) {
			path := strings.ReplaceAll(m[1], "{id}", "1")
			method := strings.ToUpper(m[2])
			seen++
			t.Run(method+" "+m[1], func(t *testing.T) {
				req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
				req.Header.Set("Authorization", token(t, hauth.RoleAdmin))
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				assert.NotEqual(t, http.StatusMethodNotAllowed, rec.Code)
				assert.NotEqual(t, "404 page not found\n", rec.Body.String(), "route not mounted")
			})
		}
	}
	assert.Equal(t, 10, seen)
}
