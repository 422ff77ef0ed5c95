package app_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/testportal/core/config"
	"github.com/dmitrymomot/testportal/core/cookie"
	"github.com/dmitrymomot/testportal/core/idle"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/core/server"
	"github.com/dmitrymomot/testportal/core/session"
	"github.com/dmitrymomot/testportal/core/storage"
	"github.com/dmitrymomot/testportal/integration/database/sqlite"
	"github.com/dmitrymomot/testportal/internal/app"
	"github.com/dmitrymomot/testportal/pkg/ratelimiter"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() app.Config {
	return app.Config{
		AppName:          "testportal",
		ArtifactsBackend: app.ArtifactsNone,
		Server:           server.Config{Addr: "127.0.0.1:0", ShutdownTimeout: 2 * time.Second},
		Cookie:           cookie.Config{Secrets: testSecret, Path: "/", SameSite: "lax"},
		Session:          session.Config{Slot: session.SlotMemory, KeyPrefix: "student:", BroadcastBuffer: 16},
		Idle:             idle.Config{Timeout: 15 * time.Minute},
		RateLimit:        ratelimiter.Config{Rate: 10, Per: time.Minute, Burst: 5, IdleTTL: time.Hour},
		RecordsConfig:    app.RecordsConfig{Records: record.Config{Source: record.SourceSeed}},
	}
}

func TestAppServesPortal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, testConfig(), logger.Nop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(ctx, 2*time.Second)
	defer addrCancel()
	addr, err := a.Addr(addrCtx)
	require.NoError(t, err)
	base := "http://" + addr.String()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar:           jar,
		Timeout:       5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	fetch := func(resp *http.Response, err error) (int, string, string) {
		t.Helper()
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, resp.Header.Get("Location"), string(body)
	}

	t.Run("readiness", func(t *testing.T) {
		status, _, body := fetch(client.Get(base + "/health/ready"))
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"session":"ok"`)
	})

	t.Run("metrics", func(t *testing.T) {
		status, _, body := fetch(client.Get(base + "/metrics"))
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "portal_idle_monitors")
		assert.Contains(t, body, "go_goroutines")
	})

	t.Run("login with seeded record", func(t *testing.T) {
		seed := record.DefaultSeed()[0]

		status, _, _ := fetch(client.Get(base + "/"))
		require.Equal(t, http.StatusOK, status)

		form := url.Values{"email": {seed.Identity}, "password": {seed.Secret}}
		status, location, _ := fetch(client.PostForm(base+"/login", form))
		assert.Equal(t, http.StatusSeeOther, status)
		assert.Equal(t, "/home", location)

		status, _, body := fetch(client.Get(base + "/home"))
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, seed.DisplayName)

		_, _, metrics := fetch(client.Get(base + "/metrics"))
		assert.Contains(t, metrics, `portal_logins_total{result="success"} 1`)
		assert.Contains(t, metrics, "portal_idle_monitors 1")
	})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*app.Config)
		want   error
	}{
		{
			name:   "unknown records source",
			mutate: func(c *app.Config) { c.Records.Source = "mongo" },
			want:   record.ErrUnknownSource,
		},
		{
			name:   "unknown session slot",
			mutate: func(c *app.Config) { c.Session.Slot = "memcached" },
			want:   app.ErrUnknownSlot,
		},
		{
			name:   "unknown artifacts backend",
			mutate: func(c *app.Config) { c.ArtifactsBackend = "ftp" },
			want:   app.ErrUnknownArtifactsBackend,
		},
		{
			name: "missing artifacts directory",
			mutate: func(c *app.Config) {
				c.ArtifactsBackend = app.ArtifactsLocal
				c.ArtifactsDir = filepath.Join(os.TempDir(), "testportal-missing-artifacts", "nope")
			},
			want: storage.ErrInvalidConfig,
		},
		{
			name:   "s3 without bucket",
			mutate: func(c *app.Config) { c.ArtifactsBackend = app.ArtifactsS3 },
			want:   storage.ErrInvalidConfig,
		},
		{
			name:   "missing cookie secret",
			mutate: func(c *app.Config) { c.Cookie.Secrets = "" },
			want:   cookie.ErrNoSecret,
		},
		{
			name:   "missing server address",
			mutate: func(c *app.Config) { c.Server.Addr = "" },
			want:   server.ErrMissingAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			tt.mutate(&cfg)
			a, err := app.New(context.Background(), cfg, nil)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, a)
		})
	}
}

func TestOpenDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	seed := record.DefaultSeed()

	t.Run("seed", func(t *testing.T) {
		t.Parallel()

		dir, err := app.OpenDirectory(ctx, testConfig().RecordsConfig, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = dir.Close() })

		recs, err := dir.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, recs, len(seed))
		assert.Empty(t, dir.Checks)
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		data, err := record.MarshalYAML(seed[:1])
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "records.yaml")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		cfg := testConfig()
		cfg.Records = record.Config{Source: "YAML", File: path}
		dir, err := app.OpenDirectory(ctx, cfg.RecordsConfig, nil)
		require.NoError(t, err)

		recs, err := dir.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, seed[0].Identity, recs[0].Identity)
	})

	t.Run("sqlite is migrated and probed", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Records = record.Config{Source: record.SourceSQLite, AutoMigrate: true}
		cfg.SQLite = sqlite.Config{Path: filepath.Join(t.TempDir(), "portal.db"), BusyTimeout: 1000}

		dir, err := app.OpenDirectory(ctx, cfg.RecordsConfig, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = dir.Close() })

		recs, err := dir.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, recs)

		require.Len(t, dir.Checks, 1)
		assert.Equal(t, "records", dir.Checks[0].Name)
		assert.NoError(t, dir.Checks[0].Fn(ctx))
	})
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cfg := testConfig()
	cfg.Records = record.Config{Source: record.SourceSQLite}
	cfg.SQLite = sqlite.Config{Path: filepath.Join(t.TempDir(), "portal.db"), BusyTimeout: 1000}
	require.NoError(t, app.Migrate(ctx, cfg.RecordsConfig, nil))
	require.NoError(t, app.Migrate(ctx, cfg.RecordsConfig, nil), "migrating twice is a no-op")

	db, err := app.OpenSQLite(ctx, cfg.RecordsConfig, nil, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, record.NewSQLDirectory(db).Import(ctx, record.DefaultSeed()))

	assert.ErrorIs(t, app.Migrate(ctx, testConfig().RecordsConfig, nil), app.ErrNoMigrations)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("production writes json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := app.NewLogger(testConfig(), &buf)
		require.NoError(t, err)

		log.Info("hello")
		log.Debug("hidden")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
		assert.Contains(t, buf.String(), `"env":"production"`)
		assert.NotContains(t, buf.String(), "hidden")
	})

	t.Run("development writes text at debug", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Web.Development = true
		var buf bytes.Buffer
		log, err := app.NewLogger(cfg, &buf)
		require.NoError(t, err)

		log.Debug("visible")
		assert.Contains(t, buf.String(), "msg=visible")
		assert.Contains(t, buf.String(), "env=development")
	})

	t.Run("level override", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.LogLevel = "warn"
		var buf bytes.Buffer
		log, err := app.NewLogger(cfg, &buf)
		require.NoError(t, err)

		log.Info("quiet")
		log.Warn("loud")
		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.LogLevel = "chatty"
		_, err := app.NewLogger(cfg, io.Discard)
		assert.Error(t, err)
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("COOKIE_SECRETS", testSecret)
	t.Setenv("RECORDS_SOURCE", "sqlite")
	config.Reset()
	t.Cleanup(config.Reset)

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, testSecret, cfg.Cookie.Secrets)
	assert.Equal(t, session.SlotMemory, cfg.Session.Slot)
	assert.Equal(t, 15*time.Minute, cfg.Idle.Timeout)
	assert.Equal(t, record.SourceSQLite, cfg.Records.Source)
	assert.True(t, cfg.Records.AutoMigrate)
	assert.Equal(t, app.ArtifactsLocal, cfg.ArtifactsBackend)
	assert.False(t, cfg.Portal.DemoFallback)
	assert.True(t, strings.HasPrefix(cfg.Redis.ConnectionURL, "redis://"))
}
