package db

import (
	"database/sql"
	"fmt"
)

// 時刻カラムは "YYYY-MM-DD HH:MM:SS" (UTC) の TEXT で保存する。文字列順 = 時系列順
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS feeds (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    url         TEXT NOT NULL UNIQUE,
    is_valid    BOOLEAN NOT NULL DEFAULT FALSE,
    last_scrape TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS entries (
    id           BIGSERIAL PRIMARY KEY,
    feed_id      BIGINT NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    title        TEXT NOT NULL,
    excerpt      TEXT NOT NULL,
    source_url   TEXT NOT NULL,
    published_at TEXT NOT NULL,
    dedupe_key   TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (feed_id, dedupe_key)
)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS feeds (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    url         TEXT NOT NULL UNIQUE,
    is_valid    BOOLEAN NOT NULL DEFAULT 0,
    last_scrape TEXT,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS entries (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    feed_id      INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    title        TEXT NOT NULL,
    excerpt      TEXT NOT NULL,
    source_url   TEXT NOT NULL,
    published_at TEXT NOT NULL,
    dedupe_key   TEXT,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (feed_id, dedupe_key)
)`,
}

// 両方言で共通のインデックス
var indexes = []string{
	// Latest(n) の ORDER BY published_at DESC 用
	`CREATE INDEX IF NOT EXISTS idx_entries_published_at ON entries(published_at DESC)`,
	// フィード別一覧・件数・カスケード削除用
	`CREATE INDEX IF NOT EXISTS idx_entries_feed_id ON entries(feed_id, published_at DESC)`,
}

// MigrateUp creates the feeds and entries tables if they do not exist.
func MigrateUp(db *sql.DB, dialect Dialect) error {
	schema := postgresSchema
	if dialect == SQLite {
		schema = sqliteSchema
	}

	for _, stmt := range append(schema, indexes...) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}
	return nil
}

// MigrateDown drops all tables. All feeds and entries are lost.
func MigrateDown(db *sql.DB) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS entries`,
		`DROP TABLE IF EXISTS feeds`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}
