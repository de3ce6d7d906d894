package scraper

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/resilience/circuitbreaker"
	"feed-scraper/internal/usecase/scrape"
)

// FetcherConfig controls HTTP fetching of feed documents.
type FetcherConfig struct {
	// Timeout is the overall request timeout of the HTTP client.
	Timeout time.Duration
	// MaxBodyBytes rejects larger responses.
	MaxBodyBytes int64
	MaxRedirects int
	UserAgent    string
	// AllowPrivate disables the private-address check (SSRF).
	AllowPrivate bool
}

func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:      20 * time.Second,
		MaxBodyBytes: 10 << 20,
		MaxRedirects: 5,
		UserAgent:    "FeedScraperBot/1.0",
	}
}

// HTTPFetcher implements scrape.Fetcher. Every error wraps scrape.ErrFetch.
//
// Each feed host has its own circuit breaker so an unreachable host is
// skipped quickly without affecting the others. 4xx responses do not count
// against the host.
type HTTPFetcher struct {
	client   *http.Client
	breakers *circuitbreaker.Registry
	cfg      FetcherConfig
}

func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	def := DefaultFetcherConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = def.MaxRedirects
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}

	f := &HTTPFetcher{cfg: cfg}
	f.breakers = circuitbreaker.NewRegistry(func(host string) circuitbreaker.Config {
		c := circuitbreaker.FeedHostConfig(host)
		c.IsSuccessful = hostReachable
		return c
	})
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			// リダイレクト先もSSRFチェック
			return f.validate(req.URL.String())
		},
	}
	return f
}

// Breakers exposes the per-host circuit breakers for health reporting.
func (f *HTTPFetcher) Breakers() *circuitbreaker.Registry {
	return f.breakers
}

// Fetch downloads feedURL and returns the body of a 200 response.
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if err := f.validate(feedURL); err != nil {
		return nil, fmt.Errorf("%w: %w", scrape.ErrFetch, err)
	}
	u, _ := url.Parse(feedURL)
	cb := f.breakers.Get(u.Host)

	out, err := cb.Execute(func() (interface{}, error) {
		return f.do(ctx, feedURL)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpenState) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			slog.Warn("feed host circuit breaker open, request rejected",
				slog.String("host", u.Host),
				slog.String("url", feedURL))
			return nil, fmt.Errorf("%w: %w: %w", scrape.ErrFetch, scrape.ErrHostUnavailable, err)
		}
		if errors.Is(err, scrape.ErrFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", scrape.ErrFetch, err)
	}
	return out.([]byte), nil
}

func (f *HTTPFetcher) do(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", feedURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: %w", scrape.ErrFetch, &scrape.StatusError{URL: feedURL, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", scrape.ErrFetch, f.cfg.MaxBodyBytes)
	}
	return body, nil
}

func (f *HTTPFetcher) validate(rawURL string) error {
	if f.cfg.AllowPrivate {
		return entity.ValidateURL(rawURL)
	}
	return entity.ValidatePublicURL(rawURL)
}

// hostReachable reports whether err still shows a responsive host.
func hostReachable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *scrape.StatusError
	if errors.As(err, &se) {
		return se.StatusCode < http.StatusInternalServerError
	}
	return false
}
