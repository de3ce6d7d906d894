// Package pagination parses page/limit query parameters and builds the
// pagination block of list responses.
package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	envcfg "feed-scraper/pkg/config"
)

// Config holds the page size defaults.
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig is limit=20, max=100.
func DefaultConfig() Config {
	return Config{DefaultLimit: 20, MaxLimit: 100}
}

// LoadFromEnv reads PAGINATION_DEFAULT_LIMIT and PAGINATION_MAX_LIMIT.
// Nonsensical combinations fall back to DefaultConfig.
func LoadFromEnv() Config {
	cfg := Config{
		DefaultLimit: envcfg.GetEnvInt("PAGINATION_DEFAULT_LIMIT", 20),
		MaxLimit:     envcfg.GetEnvInt("PAGINATION_MAX_LIMIT", 100),
	}
	if cfg.MaxLimit < 1 || cfg.DefaultLimit < 1 || cfg.DefaultLimit > cfg.MaxLimit {
		return DefaultConfig()
	}
	return cfg
}

// Params is a 1-based page request.
type Params struct {
	Page  int
	Limit int
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Metadata is rendered next to the page data.
type Metadata struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Response wraps one page of T.
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

// ParseQueryParams reads ?page= and ?limit=. Missing values take defaults,
// malformed ones are an error.
func ParseQueryParams(r *http.Request, cfg Config) (Params, error) {
	p := Params{Page: 1, Limit: cfg.DefaultLimit}
	q := r.URL.Query()

	if s := q.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return p, fmt.Errorf("invalid query parameter: page must be a positive integer")
		}
		p.Page = page
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 || limit > cfg.MaxLimit {
			return p, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", cfg.MaxLimit)
		}
		p.Limit = limit
	}
	return p, nil
}

// TotalPages is ceil(total/limit), and at least 1.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// NewResponse builds the response for one page. A nil data slice is
// rendered as [].
func NewResponse[T any](data []T, p Params, total int64) Response[T] {
	if data == nil {
		data = []T{}
	}
	return Response[T]{
		Data: data,
		Pagination: Metadata{
			Total:      total,
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: TotalPages(total, p.Limit),
		},
	}
}
