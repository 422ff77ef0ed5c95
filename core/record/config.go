package record

import "strings"

// Record sources.
const (
	SourceSeed     = "seed"
	SourceYAML     = "yaml"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config selects where the directory is read from. File is used by the yaml
// source; the SQL sources take their connection settings from their own
// configs.
type Config struct {
	Source      string `env:"RECORDS_SOURCE" envDefault:"seed"`
	File        string `env:"RECORDS_FILE" envDefault:"records.yaml"`
	AutoMigrate bool   `env:"RECORDS_AUTO_MIGRATE" envDefault:"true"`
}

// NormalizedSource returns Source lower-cased, or SourceSeed when empty.
func (c Config) NormalizedSource() string {
	s := strings.ToLower(strings.TrimSpace(c.Source))
	if s == "" {
		return SourceSeed
	}
	return s
}
