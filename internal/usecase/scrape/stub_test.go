package scrape

import (
	"context"
	"errors"
	"sort"
	"sync"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/repository"
)

/* ───────── インメモリ実装 ───────── */

// memFeedRepo はFeedRepositoryのインメモリ実装
type memFeedRepo struct {
	mu      sync.Mutex
	feeds   map[int64]*entity.Feed
	listErr error
	updates int
}

func newMemFeedRepo(feeds ...*entity.Feed) *memFeedRepo {
	r := &memFeedRepo{feeds: make(map[int64]*entity.Feed)}
	for _, f := range feeds {
		r.feeds[f.ID] = f.Clone()
	}
	return r
}

func (r *memFeedRepo) Get(_ context.Context, id int64) (*entity.Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[id]
	if !ok {
		return nil, nil
	}
	return f.Clone(), nil
}

func (r *memFeedRepo) GetByURL(_ context.Context, url string) (*entity.Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.feeds {
		if f.URL == url {
			return f.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memFeedRepo) List(_ context.Context) ([]*entity.Feed, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Feed, 0, len(r.feeds))
	for _, f := range r.feeds {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memFeedRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.feeds)), nil
}

func (r *memFeedRepo) Create(_ context.Context, f *entity.Feed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = int64(len(r.feeds) + 1)
	r.feeds[f.ID] = f.Clone()
	return nil
}

func (r *memFeedRepo) Update(_ context.Context, f *entity.Feed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.feeds[f.ID]; !ok {
		return entity.ErrNotFound
	}
	r.feeds[f.ID] = f.Clone()
	r.updates++
	return nil
}

func (r *memFeedRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.feeds[id]; !ok {
		return entity.ErrNotFound
	}
	delete(r.feeds, id)
	return nil
}

func (r *memFeedRepo) stored(id int64) *entity.Feed {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.feeds[id]; ok {
		return f.Clone()
	}
	return nil
}

// memEntryRepo はEntryRepositoryのインメモリ実装
type memEntryRepo struct {
	mu        sync.Mutex
	entries   []*entity.Entry
	createErr error
}

func (r *memEntryRepo) CreateBatch(_ context.Context, entries []*entity.Entry) (int64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range entries {
		if e.DedupeKey != "" && r.hasKey(e.FeedID, e.DedupeKey) {
			continue
		}
		c := *e
		c.ID = int64(len(r.entries) + 1)
		r.entries = append(r.entries, &c)
		n++
	}
	return n, nil
}

func (r *memEntryRepo) hasKey(feedID int64, key string) bool {
	for _, e := range r.entries {
		if e.FeedID == feedID && e.DedupeKey == key {
			return true
		}
	}
	return false
}

func (r *memEntryRepo) ExistingKeys(_ context.Context, feedID int64, keys []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, k := range keys {
		if r.hasKey(feedID, k) {
			out[k] = true
		}
	}
	return out, nil
}

func (r *memEntryRepo) ListByFeed(_ context.Context, feedID int64, _, _ int) ([]*entity.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Entry
	for _, e := range r.entries {
		if e.FeedID == feedID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) CountByFeed(ctx context.Context, feedID int64) (int64, error) {
	es, _ := r.ListByFeed(ctx, feedID, 0, 0)
	return int64(len(es)), nil
}

func (r *memEntryRepo) Latest(_ context.Context, _ int) ([]repository.EntryWithFeed, error) {
	return nil, nil
}

func (r *memEntryRepo) DeleteByFeed(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}

func (r *memEntryRepo) DeleteAll(_ context.Context) (int64, error) {
	return 0, nil
}

func (r *memEntryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

/* ───────── フェッチャー/パーサー ───────── */

// fakeFetcher はURLごとに本文またはエラーを返す
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  int
	// hook はFetch中に呼ばれる(並行テスト用)
	hook func(ctx context.Context, url string)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	hook := f.hook
	err := f.errs[url]
	body := f.bodies[url]
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, url)
	}
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.Join(ErrFetch, &StatusError{URL: url, StatusCode: 404})
	}
	return body, nil
}

// fakeParser は本文をキーにDocumentを返す
type fakeParser struct {
	docs map[string]*Document
}

func (p *fakeParser) Parse(body []byte) (*Document, error) {
	doc, ok := p.docs[string(body)]
	if !ok {
		return nil, ErrParse
	}
	return doc, nil
}
