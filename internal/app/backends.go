package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/testportal/core/health"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/core/session"
	"github.com/dmitrymomot/testportal/core/storage"
	"github.com/dmitrymomot/testportal/integration/database/pg"
	"github.com/dmitrymomot/testportal/integration/database/redis"
	"github.com/dmitrymomot/testportal/integration/database/sqlite"
	"github.com/dmitrymomot/testportal/integration/storage/s3"
	"github.com/dmitrymomot/testportal/pkg/broadcast"
)

var (
	ErrUnknownSlot             = errors.New("app: unknown session slot")
	ErrUnknownArtifactsBackend = errors.New("app: unknown artifacts backend")
	ErrNoMigrations            = errors.New("app: records source has no migrations")
)

// closers runs cleanup functions in reverse order of registration.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Directory is the configured record directory plus the resources it keeps
// open.
type Directory struct {
	record.Directory
	Checks []health.Check

	closers closers
}

// Close releases the directory's database handles.
func (d *Directory) Close() error {
	return d.closers.close()
}

// OpenDirectory opens the record source named by RECORDS_SOURCE.
func OpenDirectory(ctx context.Context, cfg RecordsConfig, log *slog.Logger) (*Directory, error) {
	switch src := cfg.Records.NormalizedSource(); src {
	case record.SourceSeed:
		dir, err := record.NewStaticDirectory(record.DefaultSeed())
		if err != nil {
			return nil, err
		}
		return &Directory{Directory: dir}, nil

	case record.SourceYAML:
		recs, err := record.LoadYAMLFile(cfg.Records.File)
		if err != nil {
			return nil, err
		}
		dir, err := record.NewStaticDirectory(recs)
		if err != nil {
			return nil, err
		}
		return &Directory{Directory: dir}, nil

	case record.SourceSQLite:
		db, err := OpenSQLite(ctx, cfg, log, cfg.Records.AutoMigrate)
		if err != nil {
			return nil, err
		}
		d := &Directory{
			Directory: record.NewSQLDirectory(db),
			Checks:    []health.Check{{Name: "records", Fn: sqlite.Healthcheck(db)}},
		}
		d.closers.add(db.Close)
		return d, nil

	case record.SourcePostgres:
		pool, err := OpenPostgres(ctx, cfg, log, cfg.Records.AutoMigrate)
		if err != nil {
			return nil, err
		}
		d := &Directory{
			Directory: record.NewPGDirectory(pool),
			Checks:    []health.Check{{Name: "records", Fn: pg.Healthcheck(pool)}},
		}
		d.closers.add(func() error {
			pool.Close()
			return nil
		})
		return d, nil

	default:
		return nil, fmt.Errorf("%w: %q", record.ErrUnknownSource, src)
	}
}

// OpenSQLite opens the SQLite record database and optionally migrates it.
func OpenSQLite(ctx context.Context, cfg RecordsConfig, log *slog.Logger, migrate bool) (*sql.DB, error) {
	db, err := sqlite.Open(ctx, cfg.SQLite)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := sqlite.Migrate(ctx, db, record.Migrations(), log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// OpenPostgres connects to the PostgreSQL record database and optionally
// migrates it.
func OpenPostgres(ctx context.Context, cfg RecordsConfig, log *slog.Logger, migrate bool) (*pgxpool.Pool, error) {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := pg.Migrate(ctx, pool, record.Migrations(), log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}

// Migrate applies the record migrations to the configured SQL source.
func Migrate(ctx context.Context, cfg RecordsConfig, log *slog.Logger) error {
	switch src := cfg.Records.NormalizedSource(); src {
	case record.SourceSQLite:
		db, err := OpenSQLite(ctx, cfg, log, true)
		if err != nil {
			return err
		}
		return db.Close()
	case record.SourcePostgres:
		pool, err := OpenPostgres(ctx, cfg, log, true)
		if err != nil {
			return err
		}
		pool.Close()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrNoMigrations, src)
	}
}

// sessionBackend is the slot and change bus shared by every tab.
type sessionBackend struct {
	slot    session.Slot
	bus     broadcast.Broadcaster[session.Change]
	check   health.Check
	closers closers
}

func openSessionBackend(ctx context.Context, cfg Config, log *slog.Logger) (*sessionBackend, error) {
	switch strings.ToLower(cfg.Session.Slot) {
	case "", session.SlotMemory:
		slot := session.NewMemorySlot()
		bus := broadcast.NewMemoryBroadcaster[session.Change](cfg.Session.BroadcastBuffer)
		b := &sessionBackend{
			slot:  slot,
			bus:   bus,
			check: health.Check{Name: "session", Fn: slot.Ping},
		}
		b.closers.add(bus.Close)
		return b, nil

	case session.SlotRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b := &sessionBackend{
			slot:  session.NewRedisSlot(client, cfg.Session.SlotTTL),
			check: health.Check{Name: "session", Fn: redis.Healthcheck(client)},
		}
		b.closers.add(client.Close)

		bus, err := broadcast.NewRedisBroadcaster[session.Change](ctx, client, cfg.Session.Channel,
			broadcast.WithBuffer(cfg.Session.BroadcastBuffer),
			broadcast.WithLogger(log),
		)
		if err != nil {
			_ = b.closers.close()
			return nil, err
		}
		b.bus = bus
		b.closers.add(bus.Close)
		return b, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, cfg.Session.Slot)
	}
}

// openArtifacts returns nil storage for the none backend.
func openArtifacts(ctx context.Context, cfg Config) (storage.Storage, closers, error) {
	var c closers
	switch strings.ToLower(cfg.ArtifactsBackend) {
	case "", ArtifactsNone:
		return nil, c, nil
	case ArtifactsLocal:
		local, err := storage.NewLocalStorage(cfg.ArtifactsDir)
		if err != nil {
			return nil, c, fmt.Errorf("open artifacts directory %q: %w", cfg.ArtifactsDir, err)
		}
		c.add(local.Close)
		return local, c, nil
	case ArtifactsS3:
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, c, err
		}
		return store, c, nil
	default:
		return nil, c, fmt.Errorf("%w: %q", ErrUnknownArtifactsBackend, cfg.ArtifactsBackend)
	}
}
