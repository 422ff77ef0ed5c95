package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/testportal/core/config"
	"github.com/dmitrymomot/testportal/core/cookie"
	"github.com/dmitrymomot/testportal/core/idle"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/login"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/core/server"
	"github.com/dmitrymomot/testportal/core/session"
	"github.com/dmitrymomot/testportal/integration/database/pg"
	"github.com/dmitrymomot/testportal/integration/database/redis"
	"github.com/dmitrymomot/testportal/integration/database/sqlite"
	"github.com/dmitrymomot/testportal/integration/storage/s3"
	"github.com/dmitrymomot/testportal/internal/portal"
	"github.com/dmitrymomot/testportal/internal/web"
	"github.com/dmitrymomot/testportal/middleware"
	"github.com/dmitrymomot/testportal/pkg/ratelimiter"
)

// Artifact backends.
const (
	ArtifactsNone  = "none"
	ArtifactsLocal = "local"
	ArtifactsS3    = "s3"
)

// Config is the full environment of the portal.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"testportal"`
	LogLevel string `env:"LOG_LEVEL"`

	ArtifactsBackend string `env:"ARTIFACTS_BACKEND" envDefault:"local"`
	ArtifactsDir     string `env:"ARTIFACTS_DIR" envDefault:"artifacts"`

	RecordsConfig

	Server    server.Config
	Web       web.Config
	Cookie    cookie.Config
	Session   session.Config
	Idle      idle.Config
	Login     login.Config
	Portal    portal.Config
	RateLimit ratelimiter.Config
	Redis     redis.Config
	S3        s3.Config
}

// RecordsConfig is the part of Config that locates the record directory.
// The records and migrate commands load only this.
type RecordsConfig struct {
	Records  record.Config
	SQLite   sqlite.Config
	Postgres pg.Config
}

// LoadConfig reads Config from the environment and an optional .env file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadRecordsConfig reads only the record directory settings.
func LoadRecordsConfig() (RecordsConfig, error) {
	var cfg RecordsConfig
	if err := config.Load(&cfg); err != nil {
		return RecordsConfig{}, err
	}
	return cfg, nil
}

// NewLogger builds the application logger. Development mode writes text at
// debug level, otherwise JSON at info level. LOG_LEVEL overrides the level.
func NewLogger(cfg Config, w io.Writer) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithProduction(cfg.AppName),
		logger.WithContextExtractors(middleware.RequestIDExtractor),
		logger.WithOutput(w),
	}
	if cfg.Web.Development {
		opts[0] = logger.WithDevelopment(cfg.AppName)
	}

	if lvl := strings.TrimSpace(cfg.LogLevel); lvl != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("app: invalid LOG_LEVEL %q: %w", lvl, err)
		}
		opts = append(opts, logger.WithLevel(level))
	}

	return logger.New(opts...), nil
}
