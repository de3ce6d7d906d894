package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"feed-scraper/internal/domain/entity"
	"feed-scraper/internal/infra/adapter/persistence/postgres"
)

/* ──────────────────────────────── ヘルパ ──────────────────────────────── */

var feedCols = []string{"id", "name", "url", "is_valid", "last_scrape", "created_at"}

func feedRow(f *entity.Feed) *sqlmock.Rows {
	var last any
	if f.LastScrape != nil {
		last = f.LastScrape.UTC().Format("2006-01-02 15:04:05")
	}
	return sqlmock.NewRows(feedCols).AddRow(f.ID, f.Name, f.URL, f.IsValid, last, f.CreatedAt)
}

func ptr(t time.Time) *time.Time { return &t }

/* ──────────────────────────────── 1. Get ──────────────────────────────── */

func TestFeedRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	want := &entity.Feed{
		ID: 1, Name: "Go Blog", URL: "https://go.dev/blog/feed.atom",
		IsValid: true, LastScrape: ptr(time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)), CreatedAt: created,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, url, is_valid, last_scrape, created_at`)).
		WithArgs(int64(1)).
		WillReturnRows(feedRow(want))

	repo := postgres.NewFeedRepo(db)
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFeedRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM feeds`).WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(feedCols))

	got, err := postgres.NewFeedRepo(db).Get(context.Background(), 9)
	if err != nil || got != nil {
		t.Fatalf("want nil,nil got %v,%v", got, err)
	}
}

func TestFeedRepo_Get_NullLastScrape(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM feeds`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(feedCols).AddRow(2, "new", "https://example.com/rss", false, nil, time.Now()))

	got, err := postgres.NewFeedRepo(db).Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.LastScrape != nil {
		t.Fatalf("LastScrape = %v, want nil", got.LastScrape)
	}
}

/* ──────────────────────────────── 2. List ──────────────────────────────── */

func TestFeedRepo_List(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM feeds`).
		WillReturnRows(sqlmock.NewRows(feedCols).
			AddRow(1, "a", "https://a.example.com/rss", true, "2024-01-01 00:00:00", time.Now()).
			AddRow(2, "b", "https://b.example.com/rss", false, nil, time.Now()))

	got, err := postgres.NewFeedRepo(db).List(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("List err=%v len=%d", err, len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

/* ──────────────────────────────── 3. Create ──────────────────────────────── */

func TestFeedRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO feeds (name, url, is_valid, last_scrape)`)).
		WithArgs("Go Blog", "https://go.dev/blog/feed.atom", false, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(42, created))

	feed := &entity.Feed{Name: "Go Blog", URL: "https://go.dev/blog/feed.atom"}
	if err := postgres.NewFeedRepo(db).Create(context.Background(), feed); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if feed.ID != 42 || !feed.CreatedAt.Equal(created) {
		t.Fatalf("ID/CreatedAt not populated: %+v", feed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

/* ──────────────────────────────── 4. Update ──────────────────────────────── */

func TestFeedRepo_Update(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE feeds SET`)).
		WithArgs("Go Blog", "https://go.dev/blog/feed.atom", true, "2024-01-03 12:00:00", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	feed := &entity.Feed{
		ID: 1, Name: "Go Blog", URL: "https://go.dev/blog/feed.atom",
		IsValid: true, LastScrape: ptr(time.Date(2024, 1, 3, 13, 0, 0, 0, time.FixedZone("CET", 3600))),
	}
	if err := postgres.NewFeedRepo(db).Update(context.Background(), feed); err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFeedRepo_Update_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`UPDATE feeds`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := postgres.NewFeedRepo(db).Update(context.Background(), &entity.Feed{ID: 5, Name: "x", URL: "https://x"})
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

/* ──────────────────────────────── 5. Delete ──────────────────────────────── */

func TestFeedRepo_Delete_CascadesEntries(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM entries WHERE feed_id = $1`)).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM feeds WHERE id = $1`)).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := postgres.NewFeedRepo(db).Delete(context.Background(), 3); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFeedRepo_Delete_NotFoundRollsBack(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM entries`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM feeds`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := postgres.NewFeedRepo(db).Delete(context.Background(), 99)
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
