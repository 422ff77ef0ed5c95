package record

import (
	"context"
	"slices"
)

// Directory is the read-only collection of records consulted at login.
type Directory interface {
	// FindAll returns every record in directory order.
	FindAll(ctx context.Context) ([]Record, error)
}

// FindByCredentials scans the directory in order and returns the first record
// whose identity and secret both equal the given values exactly.
func FindByCredentials(ctx context.Context, dir Directory, identity, secret string) (Record, bool, error) {
	recs, err := dir.FindAll(ctx)
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range recs {
		if r.Identity == identity && r.Secret == secret {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// First returns the first record of the directory.
func First(ctx context.Context, dir Directory) (Record, bool, error) {
	recs, err := dir.FindAll(ctx)
	if err != nil {
		return Record{}, false, err
	}
	if len(recs) == 0 {
		return Record{}, false, nil
	}
	return recs[0], true, nil
}

// StaticDirectory is an in-memory directory.
type StaticDirectory struct {
	records []Record
}

// NewStaticDirectory validates recs and keeps a private copy.
func NewStaticDirectory(recs []Record) (*StaticDirectory, error) {
	if err := Validate(recs); err != nil {
		return nil, err
	}
	return &StaticDirectory{records: cloneRecords(recs)}, nil
}

func (d *StaticDirectory) FindAll(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneRecords(d.records), nil
}

func (d *StaticDirectory) Len() int {
	return len(d.records)
}

func cloneRecords(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		r.Scores = slices.Clone(r.Scores)
		out[i] = r
	}
	return out
}
