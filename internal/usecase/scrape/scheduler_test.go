package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-scraper/internal/domain/entity"
)

func cycleFixture(t *testing.T, cfg SchedulerConfig) (*Scheduler, *memFeedRepo, *fakeFetcher) {
	t.Helper()
	feeds := newMemFeedRepo(
		&entity.Feed{ID: 1, Name: "ok", URL: "https://a.example.com/rss"},
		&entity.Feed{ID: 2, Name: "down", URL: "https://b.example.com/rss"},
		&entity.Feed{ID: 3, Name: "broken", URL: "https://c.example.com/rss"},
		&entity.Feed{ID: 4, Name: "ok too", URL: "https://d.example.com/rss"},
	)
	fetcher := &fakeFetcher{
		bodies: map[string][]byte{
			"https://a.example.com/rss": []byte("a"),
			"https://c.example.com/rss": []byte("garbage"),
			"https://d.example.com/rss": []byte("d"),
		},
		errs: map[string]error{
			"https://b.example.com/rss": fmt.Errorf("%w: timeout", ErrFetch),
		},
	}
	parser := &fakeParser{docs: map[string]*Document{
		"a": {Items: []Item{item("a1", t0), item("a2", t0.Add(time.Hour))}},
		"d": {Items: []Item{item("d1", t0)}},
	}}
	engine := NewEngine(feeds, &memEntryRepo{}, fetcher, parser, DefaultConfig()).
		WithClock(func() time.Time { return now })
	return NewScheduler(feeds, engine, cfg), feeds, fetcher
}

func TestScheduler_RunCycle_IsolatesFailures(t *testing.T) {
	tests := []struct {
		name string
		cfg  SchedulerConfig
	}{
		{name: "sequential", cfg: SchedulerConfig{Parallelism: 1}},
		{name: "parallel", cfg: SchedulerConfig{Parallelism: 3, FeedTimeout: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, feeds, fetcher := cycleFixture(t, tt.cfg)

			stats, err := s.RunCycle(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 4, stats.Feeds)
			assert.Equal(t, 2, stats.Succeeded)
			assert.Equal(t, 2, stats.Failed)
			assert.Equal(t, 1, stats.FetchFailures)
			assert.Equal(t, 1, stats.ParseFailures)
			assert.Equal(t, 3, stats.NewEntries)
			assert.False(t, stats.Aborted)
			assert.Equal(t, 4, fetcher.calls)

			assert.True(t, feeds.stored(1).IsValid)
			assert.False(t, feeds.stored(2).IsValid)
			assert.Nil(t, feeds.stored(2).LastScrape)
			assert.False(t, feeds.stored(3).IsValid)
			assert.True(t, feeds.stored(4).IsValid)
		})
	}
}

func TestScheduler_RunCycle_FeedTimeoutMarksInvalid(t *testing.T) {
	// フェッチのタイムアウトよりフィードの期限が短い構成
	s, feeds, fetcher := cycleFixture(t, SchedulerConfig{Parallelism: 1, FeedTimeout: 50 * time.Millisecond})
	require.NoError(t, feeds.Update(context.Background(), &entity.Feed{
		ID: 2, Name: "down", URL: "https://b.example.com/rss", IsValid: true,
	}))
	fetcher.errs["https://b.example.com/rss"] = context.DeadlineExceeded
	fetcher.hook = func(ctx context.Context, url string) {
		if url == "https://b.example.com/rss" {
			<-ctx.Done()
		}
	}

	stats, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 1, stats.FetchFailures)
	assert.Equal(t, 2, stats.Failed)
	assert.False(t, stats.Aborted)
	assert.False(t, feeds.stored(2).IsValid)
	assert.Nil(t, feeds.stored(2).LastScrape)
	assert.True(t, feeds.stored(1).IsValid)
}

func TestScheduler_RunCycle_ListError(t *testing.T) {
	s, feeds, _ := cycleFixture(t, SchedulerConfig{})
	feeds.listErr = errors.New("db down")

	stats, err := s.RunCycle(context.Background())
	assert.Nil(t, stats)
	assert.ErrorContains(t, err, "db down")
}

func TestScheduler_RunCycle_RejectsOverlap(t *testing.T) {
	s, _, fetcher := cycleFixture(t, SchedulerConfig{})

	started := make(chan struct{})
	release := make(chan struct{})
	var once atomic.Bool
	fetcher.hook = func(context.Context, string) {
		if once.CompareAndSwap(false, true) {
			close(started)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.RunCycle(context.Background())
		done <- err
	}()

	<-started
	assert.True(t, s.Running())
	_, err := s.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Running())
}

func TestScheduler_RunCycle_StopsOnCancel(t *testing.T) {
	s, feeds, fetcher := cycleFixture(t, SchedulerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	fetcher.hook = func(_ context.Context, url string) {
		if url == "https://a.example.com/rss" {
			cancel()
		}
	}

	stats, err := s.RunCycle(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Aborted)
	assert.Equal(t, 1, fetcher.calls)
	// 取得済みの本文は保存される
	assert.True(t, feeds.stored(1).IsValid)
	assert.Nil(t, feeds.stored(4).LastScrape)
}

func TestNextRun(t *testing.T) {
	cet := time.FixedZone("CET", 3600)

	tests := []struct {
		name     string
		schedule string
		loc      *time.Location
		now      time.Time
		want     time.Time
		wantErr  bool
	}{
		{
			name:     "hourly",
			schedule: "0 * * * *",
			now:      time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC),
			want:     time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC),
		},
		{
			name:     "descriptor",
			schedule: "@hourly",
			loc:      time.UTC,
			now:      time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC),
			want:     time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "daily in location",
			schedule: "30 5 * * *",
			loc:      cet,
			now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			want:     time.Date(2024, 3, 2, 5, 30, 0, 0, cet),
		},
		{name: "invalid", schedule: "every hour", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRun(tt.schedule, tt.loc, tt.now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}
