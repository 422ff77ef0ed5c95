// Package pg connects to PostgreSQL through a pgx connection pool, applies
// goose migrations and exposes a readiness probe.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, record.Migrations(), log); err != nil {
//		return err
//	}
//
// Connect retries with exponential backoff so the portal can start before the
// database accepts connections.
package pg
