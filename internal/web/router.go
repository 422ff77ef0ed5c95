package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/dmitrymomot/testportal/core/cookie"
	"github.com/dmitrymomot/testportal/core/health"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/router"
	"github.com/dmitrymomot/testportal/core/static"
	"github.com/dmitrymomot/testportal/core/storage"
	"github.com/dmitrymomot/testportal/middleware"
	"github.com/dmitrymomot/testportal/pkg/ratelimiter"
)

var (
	ErrMissingPortal  = errors.New("web: portal service is required")
	ErrMissingCookies = errors.New("web: cookie manager is required")
)

// Deps are the collaborators of the HTTP layer. Artifacts, LoginLimiter and
// Metrics are optional.
type Deps struct {
	Portal       Portal
	Cookies      *cookie.Manager
	Artifacts    storage.Storage
	LoginLimiter ratelimiter.RateLimiter
	Metrics      http.Handler
	Checks       []health.Check
	Logger       *slog.Logger
}

// Handler is the portal's root http.Handler.
type Handler struct {
	router.Router[*router.Context]

	once sync.Once
	done chan struct{}
}

// New builds the routes.
func New(cfg Config, deps Deps) (*Handler, error) {
	if deps.Portal == nil {
		return nil, ErrMissingPortal
	}
	if deps.Cookies == nil {
		return nil, ErrMissingCookies
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	cfg = cfg.withDefaults()

	v, err := parseViews()
	if err != nil {
		return nil, err
	}

	out := &Handler{done: make(chan struct{})}
	h := &handlers{
		cfg:       cfg,
		portal:    deps.Portal,
		cookies:   deps.Cookies,
		artifacts: deps.Artifacts,
		views:     v,
		log:       deps.Logger,
		shutdown:  out.done,
	}

	r := router.New[*router.Context](
		router.WithLogger[*router.Context](deps.Logger),
		router.WithErrorHandler[*router.Context](h.errorPage),
		router.WithMiddleware[*router.Context](
			middleware.RequestID[*router.Context](cfg.TrustProxy),
			middleware.ClientIP[*router.Context](cfg.TrustProxy),
			middleware.Logging[*router.Context](deps.Logger, isProbe),
			middleware.SecurityHeaders[*router.Context](cfg.Development),
		),
	)

	r.Get("/health/live", health.Liveness[*router.Context])
	r.Get("/health/ready", health.Readiness[*router.Context](deps.Logger, cfg.ReadyTimeout, deps.Checks...))
	if deps.Metrics != nil {
		r.Mount("/metrics", deps.Metrics)
	}
	r.Get("/static/*", static.FS[*router.Context](assetFS,
		static.WithSubFS("assets"),
		static.WithStripPrefix("/static"),
		static.WithMaxAge(cfg.StaticMaxAge),
	))

	r.Group(func(r router.Router[*router.Context]) {
		r.Use(
			middleware.Client[*router.Context](deps.Cookies, deps.Logger),
			middleware.BodyLimit[*router.Context](cfg.MaxBodyBytes),
		)

		r.Get("/", h.loginPage)
		if deps.LoginLimiter != nil {
			r.With(middleware.RateLimit[*router.Context](deps.LoginLimiter)).Post("/login", h.login)
		} else {
			r.Post("/login", h.login)
		}
		r.Get("/home", h.dashboard)
		r.Get("/result", h.results)
		r.Method("/logout", h.logout, http.MethodGet, http.MethodPost)
		r.Get("/file/{ref}", h.artifact)
		r.Get("/session/sync", h.sync)
		r.Post("/session/activity", h.activity)
	})

	out.Router = r
	return out, nil
}

// Shutdown closes every open sync socket. It is safe to call more than once.
func (h *Handler) Shutdown() {
	h.once.Do(func() { close(h.done) })
}

func isProbe(ctx *router.Context) bool {
	p := ctx.Request().URL.Path
	return strings.HasPrefix(p, "/health/") || p == "/metrics" || strings.HasPrefix(p, "/static/")
}
