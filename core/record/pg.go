package record

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSelectRecords = `SELECT r.email, r.name, r.password, r.test_type, r.test_date, r.test_time,
	r.test_mode, r.test_center, r.test_address, r.artifact_ref,
	s.name, s.score
FROM records r
LEFT JOIN record_scores s ON s.email = r.email
ORDER BY r.position, s.position`

// PGDirectory reads records from PostgreSQL. Like SQLDirectory it loads once
// and serves from memory.
type PGDirectory struct {
	pool  *pgxpool.Pool
	cache lazyRecords
}

func NewPGDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

func (d *PGDirectory) FindAll(ctx context.Context) ([]Record, error) {
	return d.cache.get(ctx, d.load)
}

func (d *PGDirectory) load(ctx context.Context) ([]Record, error) {
	rows, err := d.pool.Query(ctx, pgSelectRecords)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var (
			r         Record
			scoreName *string
			score     *float64
		)
		if err := rows.Scan(&r.Identity, &r.DisplayName, &r.Secret, &r.TestType,
			&r.Test.Date, &r.Test.Time, &r.Test.Mode, &r.Test.Center, &r.Test.Address,
			&r.ArtifactRef, &scoreName, &score); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		// Rows arrive grouped by record; a new identity starts a new record.
		if n := len(recs); n == 0 || recs[n-1].Identity != r.Identity {
			recs = append(recs, r)
		}
		if scoreName != nil && score != nil {
			last := &recs[len(recs)-1]
			last.Scores = append(last.Scores, Score{Name: *scoreName, Score: *score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return recs, nil
}
