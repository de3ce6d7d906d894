package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()

	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 1*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{in: "", want: Postgres},
		{in: "postgres", want: Postgres},
		{in: "pgx", want: Postgres},
		{in: "sqlite", want: SQLite},
		{in: "sqlite3", want: SQLite},
		{in: "mysql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConnectionConfigFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want ConnectionConfig
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: DefaultConnectionConfig(),
		},
		{
			name: "all custom",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":     "50",
				"DB_MAX_IDLE_CONNS":     "20",
				"DB_CONN_MAX_LIFETIME":  "2h",
				"DB_CONN_MAX_IDLE_TIME": "10m",
			},
			want: ConnectionConfig{MaxOpenConns: 50, MaxIdleConns: 20, ConnMaxLifetime: 2 * time.Hour, ConnMaxIdleTime: 10 * time.Minute},
		},
		{
			name: "invalid and non-positive values fall back",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":    "zero",
				"DB_MAX_IDLE_CONNS":    "-1",
				"DB_CONN_MAX_LIFETIME": "0s",
			},
			want: DefaultConnectionConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME"} {
				t.Setenv(k, tt.env[k])
			}
			assert.Equal(t, tt.want, getConnectionConfigFromEnv())
		})
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/feeds.db")
	t.Setenv("DATABASE_URL", "")

	opts, err := OptionsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, SQLite, opts.Dialect)
	assert.Equal(t, "/tmp/feeds.db", opts.SQLitePath)

	t.Setenv("DB_DRIVER", "oracle")
	_, err = OptionsFromEnv()
	assert.Error(t, err)
}

func TestOpen_MissingDSN(t *testing.T) {
	_, err := Open(context.Background(), Options{Dialect: Postgres, Pool: DefaultConnectionConfig()})
	assert.ErrorContains(t, err, "DATABASE_URL not set")
}

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "feeds.db")

	db, err := Open(context.Background(), Options{Dialect: SQLite, SQLitePath: path, Pool: DefaultConnectionConfig()})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, MigrateUp(db.DB, SQLite))
	// 二回目も冪等
	require.NoError(t, MigrateUp(db.DB, SQLite))

	res, err := db.Exec(`INSERT INTO feeds (name, url) VALUES ('a', 'https://a.example.com/rss')`)
	require.NoError(t, err)
	feedID, _ := res.LastInsertId()
	_, err = db.Exec(`INSERT INTO entries (feed_id, title, excerpt, source_url, published_at) VALUES (?, 't', 'e', 'https://a.example.com/1', '2024-01-01 00:00:00')`, feedID)
	require.NoError(t, err)

	// 外部キーが有効なので feeds の削除で entries も消える
	_, err = db.Exec(`DELETE FROM feeds WHERE id = ?`, feedID)
	require.NoError(t, err)
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM entries`))
	assert.Equal(t, 0, n)
}
