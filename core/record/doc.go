// Package record holds test-taker records and the read-only directory they
// are looked up in.
//
// A Record is the whole payload persisted into a client's session slot: the
// identity and secret used at login, the display name, the booked test, the
// score set and the reference of the downloadable result document. Its JSON
// layout is the slot format.
//
// Directories are built once at startup and never change afterwards:
//
//	recs, err := record.LoadYAMLFile("records.yaml")
//	dir, err := record.NewStaticDirectory(recs)
//
// SQLDirectory (SQLite through modernc.org/sqlite) and PGDirectory
// (PostgreSQL through pgx) read the same schema, created by the embedded
// goose migrations.
package record
