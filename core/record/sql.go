package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const (
	sqliteSelectRecords = `SELECT email, name, password, test_type, test_date, test_time,
	test_mode, test_center, test_address, artifact_ref
FROM records ORDER BY position`
	sqliteSelectScores = `SELECT email, name, score FROM record_scores ORDER BY email, position`
	sqliteInsertRecord = `INSERT INTO records (position, email, name, password, test_type, test_date,
	test_time, test_mode, test_center, test_address, artifact_ref)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqliteInsertScore = `INSERT INTO record_scores (email, position, name, score) VALUES (?, ?, ?, ?)`
)

// SQLDirectory reads records from a database/sql handle opened with the
// modernc.org/sqlite driver. The directory is read once on first use and
// served from memory afterwards.
type SQLDirectory struct {
	db    *sql.DB
	cache lazyRecords
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory {
	return &SQLDirectory{db: db}
}

func (d *SQLDirectory) FindAll(ctx context.Context) ([]Record, error) {
	return d.cache.get(ctx, d.load)
}

func (d *SQLDirectory) load(ctx context.Context) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx, sqliteSelectRecords)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var recs []Record
	index := make(map[string]int)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Identity, &r.DisplayName, &r.Secret, &r.TestType,
			&r.Test.Date, &r.Test.Time, &r.Test.Mode, &r.Test.Center, &r.Test.Address,
			&r.ArtifactRef); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		index[r.Identity] = len(recs)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	scores, err := d.db.QueryContext(ctx, sqliteSelectScores)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer scores.Close()

	for scores.Next() {
		var email string
		var sc Score
		if err := scores.Scan(&email, &sc.Name, &sc.Score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if i, ok := index[email]; ok {
			recs[i].Scores = append(recs[i].Scores, sc)
		}
	}
	if err := scores.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}

	return recs, nil
}

// Import replaces the directory content with recs in one transaction.
func (d *SQLDirectory) Import(ctx context.Context, recs []Record) (err error) {
	if err := Validate(recs); err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM record_scores`); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	for pos, r := range recs {
		if _, err = tx.ExecContext(ctx, sqliteInsertRecord, pos, r.Identity, r.DisplayName, r.Secret,
			r.TestType, r.Test.Date, r.Test.Time, r.Test.Mode, r.Test.Center, r.Test.Address,
			r.ArtifactRef); err != nil {
			return fmt.Errorf("insert record %s: %w", r.Identity, err)
		}
		for i, sc := range r.Scores {
			if _, err = tx.ExecContext(ctx, sqliteInsertScore, r.Identity, i, sc.Name, sc.Score); err != nil {
				return fmt.Errorf("insert score %s/%s: %w", r.Identity, sc.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	d.cache.reset()
	return nil
}
