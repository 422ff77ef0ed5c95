// Package sqlite opens SQLite databases through the pure-Go modernc.org/sqlite
// driver and applies goose migrations to them.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/testportal/core/logger"
)

var (
	ErrEmptyPath               = errors.New("empty sqlite database path")
	ErrFailedToOpenDB          = errors.New("failed to open sqlite database")
	ErrHealthcheckFailed       = errors.New("sqlite healthcheck failed")
	ErrFailedToApplyMigrations = errors.New("failed to apply migrations")
)

// Config holds the SQLite connection settings.
type Config struct {
	Path        string `env:"SQLITE_PATH" envDefault:"portal.db"`
	BusyTimeout int    `env:"SQLITE_BUSY_TIMEOUT_MS" envDefault:"5000"`
}

// Open opens the database, enables foreign keys and verifies the connection.
// Use ":memory:" as Path for a private in-memory database.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", cfg.Path, cfg.BusyTimeout)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpenDB, err)
	}
	// One connection keeps ":memory:" databases shared across queries and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrFailedToOpenDB, err)
	}
	return db, nil
}

// Migrate applies every pending migration found in migrations.
func Migrate(ctx context.Context, db *sql.DB, migrations fs.FS, log *slog.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, res := range results {
		log.InfoContext(ctx, "migration applied",
			logger.Component("sqlite"),
			slog.String("source", res.Source.Path),
			logger.Duration(res.Duration),
		)
	}
	return nil
}

// Healthcheck returns a readiness probe for the database.
func Healthcheck(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
