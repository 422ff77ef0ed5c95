package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/testportal/core/cookie"
	"github.com/dmitrymomot/testportal/core/health"
	"github.com/dmitrymomot/testportal/core/idle"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/login"
	"github.com/dmitrymomot/testportal/core/server"
	"github.com/dmitrymomot/testportal/core/session"
	"github.com/dmitrymomot/testportal/internal/portal"
	"github.com/dmitrymomot/testportal/internal/web"
	"github.com/dmitrymomot/testportal/pkg/ratelimiter"
)

// App owns every long-lived component of the portal.
type App struct {
	cfg     Config
	log     *slog.Logger
	server  *server.Server
	handler *web.Handler
	portal  *portal.Service
	limiter *ratelimiter.MemoryLimiter
	closers closers
}

// Option configures App.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	registry *prometheus.Registry
}

// WithClock sets the clock driving idle deadlines and the login limiter.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRegistry sets the prometheus registry served on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// New opens the configured backends and assembles the portal. On error
// everything opened so far is closed.
func New(ctx context.Context, cfg Config, log *slog.Logger, opts ...Option) (_ *App, err error) {
	if log == nil {
		log = logger.Nop()
	}
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			_ = a.closers.close()
		}
	}()

	dir, err := OpenDirectory(ctx, cfg.RecordsConfig, log)
	if err != nil {
		return nil, err
	}
	a.closers.add(dir.Close)

	recs, err := dir.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "record directory loaded",
		logger.Component("app"),
		logger.Key("source", cfg.Records.NormalizedSource()),
		logger.Key("records", len(recs)),
	)

	backend, err := openSessionBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers.add(backend.closers.close)

	artifacts, artifactClosers, err := openArtifacts(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers.add(artifactClosers.close)

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return nil, err
	}

	metrics := portal.NewMetrics(o.registry)
	monitors := idle.NewRegistry(cfg.Idle.Timeout, idle.NewClockScheduler(o.clock),
		idle.WithObserver(metrics.ObserveMonitors),
	)
	store := session.NewStore(backend.slot, backend.bus,
		session.WithKeyPrefix(cfg.Session.KeyPrefix),
		session.WithLogger(log),
	)
	resolver := login.NewResolver(dir,
		login.WithDelay(cfg.Login.Delay),
		login.WithLogger(log),
	)
	a.portal = portal.New(resolver, store, monitors, dir,
		portal.WithLogger(log),
		portal.WithMetrics(metrics),
		portal.WithDemoFallback(cfg.Portal.DemoFallback),
	)
	a.closers.add(func() error {
		a.portal.Close()
		return nil
	})

	a.limiter, err = ratelimiter.NewMemory(cfg.RateLimit,
		ratelimiter.WithClock(o.clock),
		ratelimiter.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	checks := append([]health.Check{backend.check}, dir.Checks...)
	a.handler, err = web.New(cfg.Web, web.Deps{
		Portal:       a.portal,
		Cookies:      cookies,
		Artifacts:    artifacts,
		LoginLimiter: a.limiter,
		Metrics:      promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry}),
		Checks:       checks,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	a.server, err = server.NewFromConfig(cfg.Server,
		server.WithLogger(log),
		server.WithOnShutdown(a.handler.Shutdown),
	)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Addr blocks until the server listens and returns its address.
func (a *App) Addr(ctx context.Context) (net.Addr, error) { return a.server.Addr(ctx) }

// Run serves until ctx is cancelled or a component fails, then releases every
// backend. A clean shutdown returns nil.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(a.server.Run(ctx, a.handler))
	g.Go(a.limiter.Run(ctx))

	err := g.Wait()
	if cerr := a.Close(); cerr != nil {
		a.log.Error("failed to release resources", logger.Component("app"), logger.Error(cerr))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close stops idle monitors and closes the backends. Run calls it on exit.
func (a *App) Close() error {
	err := a.closers.close()
	a.closers = nil
	return err
}
