// Package db opens the feed store and manages its schema.
// PostgreSQL (pgx) is the default; SQLite is available for single-node setups.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"feed-scraper/internal/resilience/retry"
	envcfg "feed-scraper/pkg/config"
)

// Dialect selects the SQL driver and schema flavor.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts "postgres"/"pgx" and "sqlite"/"sqlite3".
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "postgres", "postgresql", "pgx", "":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", s)
	}
}

func (d Dialect) driverName() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Options describes how to reach the store.
type Options struct {
	Dialect Dialect
	// DSN is the PostgreSQL connection string (DATABASE_URL).
	DSN string
	// SQLitePath is the database file for the sqlite dialect.
	SQLitePath string
	Pool       ConnectionConfig
}

// sqliteDSN enables foreign keys (ON DELETE CASCADE) and WAL.
func sqliteDSN(path string) string {
	return path + "?_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
}

// Open creates the pool, applies pool settings and waits until the
// database answers a ping.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	var dsn string
	switch opts.Dialect {
	case SQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("open sqlite: SQLITE_PATH not set")
		}
		if dir := filepath.Dir(opts.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("open sqlite: create directory: %w", err)
			}
		}
		dsn = sqliteDSN(opts.SQLitePath)
	default:
		if opts.DSN == "" {
			return nil, fmt.Errorf("open postgres: DATABASE_URL not set")
		}
		dsn = opts.DSN
	}

	db, err := sqlx.Open(opts.Dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Dialect, err)
	}

	cfg := opts.Pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.String("dialect", string(opts.Dialect)),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	if err := Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Info("database connection established successfully")
	return db, nil
}

// Ping waits for the database with retry.StartupConfig.
func Ping(ctx context.Context, db *sqlx.DB) error {
	err := retry.WithBackoff(ctx, retry.StartupConfig(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// OptionsFromEnv reads DB_DRIVER, DATABASE_URL, SQLITE_PATH and the pool variables.
func OptionsFromEnv() (Options, error) {
	dialect, err := ParseDialect(envcfg.GetEnvString("DB_DRIVER", string(Postgres)))
	if err != nil {
		return Options{}, err
	}
	return Options{
		Dialect:    dialect,
		DSN:        os.Getenv("DATABASE_URL"),
		SQLitePath: envcfg.GetEnvString("SQLITE_PATH", "feed-scraper.db"),
		Pool:       getConnectionConfigFromEnv(),
	}, nil
}

// getConnectionConfigFromEnv reads pool settings, ignoring non-positive values.
func getConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	if v := envcfg.GetEnvInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns); v > 0 {
		cfg.MaxOpenConns = v
	}
	if v := envcfg.GetEnvInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns); v > 0 {
		cfg.MaxIdleConns = v
	}
	if v := envcfg.GetEnvDuration("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime); v > 0 {
		cfg.ConnMaxLifetime = v
	}
	if v := envcfg.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", cfg.ConnMaxIdleTime); v > 0 {
		cfg.ConnMaxIdleTime = v
	}
	return cfg
}
