package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/logger"
)

// mux is the private implementation of Router on top of a chi.Router.
type mux[C handler.Context] struct {
	r            chi.Router
	root         *mux[C]
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request) C
	logger       *slog.Logger
}

func newMux[C handler.Context](opts ...Option[C]) *mux[C] {
	m := &mux[C]{
		r:            chi.NewRouter(),
		errorHandler: defaultErrorHandler[C],
		logger:       logger.Nop(),
	}
	m.root = m

	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request) C {
			var zero C
			if _, ok := any(zero).(*Context); ok {
				return any(NewContext(w, r)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	m.r.NotFound(m.adapt(nil, func(C) handler.Response {
		return errorResponse(ErrNotFound)
	}))
	m.r.MethodNotAllowed(m.adapt(nil, func(C) handler.Response {
		return errorResponse(ErrMethodNotAllowed)
	}))

	return m
}

// derive returns a router over the given chi router that shares the root's
// configuration and carries a copy of the current middleware chain.
func (m *mux[C]) derive(r chi.Router, extra ...handler.Middleware[C]) *mux[C] {
	mws := slices.Clone(m.middlewares)
	mws = append(mws, extra...)
	return &mux[C]{
		r:            r,
		root:         m.root,
		middlewares:  mws,
		errorHandler: m.errorHandler,
		newContext:   m.newContext,
		logger:       m.logger,
	}
}

func (m *mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.r.ServeHTTP(w, r)
}

// adapt wraps a typed handler for chi. Every failure, including a nil
// response and a recovered panic, goes to the error handler.
func (m *mux[C]) adapt(mws []handler.Middleware[C], h handler.HandlerFunc[C]) http.HandlerFunc {
	h = handler.Chain(h, mws...)

	return func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		ctx := m.newContext(tw, r)
		defer m.recoverPanic(ctx, tw, r)

		resp := h(ctx)
		if resp == nil {
			m.errorHandler(ctx, ErrNilResponse)
			return
		}
		err := resp(tw, ctx.Request())
		switch {
		case err == nil:
		case tw.status != 0:
			m.logger.ErrorContext(r.Context(), "response failed after it was committed",
				logger.Error(err),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.StatusCode(tw.status),
			)
		default:
			m.errorHandler(ctx, err)
		}
	}
}

func (m *mux[C]) recoverPanic(ctx C, tw *trackingWriter, r *http.Request) {
	v := recover()
	if v == nil {
		return
	}
	perr := &PanicError{Value: v, Stack: debug.Stack()}
	m.logger.ErrorContext(r.Context(), "handler panicked",
		logger.Error(perr),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
		slog.String("stack", string(perr.Stack)),
	)
	if tw.status == 0 {
		m.errorHandler(ctx, perr)
	}
}

func (m *mux[C]) handle(method, pattern string, h handler.HandlerFunc[C]) {
	if h == nil {
		panic(ErrNilHandler)
	}
	m.r.Method(method, pattern, m.adapt(m.middlewares, h))
}

func (m *mux[C]) Get(pattern string, h handler.HandlerFunc[C])  { m.handle(http.MethodGet, pattern, h) }
func (m *mux[C]) Post(pattern string, h handler.HandlerFunc[C]) { m.handle(http.MethodPost, pattern, h) }

func (m *mux[C]) Method(pattern string, h handler.HandlerFunc[C], methods ...string) {
	for _, method := range methods {
		m.handle(method, pattern, h)
	}
}

func (m *mux[C]) Use(middlewares ...handler.Middleware[C]) {
	m.middlewares = append(m.middlewares, middlewares...)
}

func (m *mux[C]) With(middlewares ...handler.Middleware[C]) Router[C] {
	return m.derive(m.r, middlewares...)
}

func (m *mux[C]) Group(fn func(r Router[C])) Router[C] {
	sub := m.derive(m.r)
	if fn != nil {
		fn(sub)
	}
	return sub
}

func (m *mux[C]) Route(pattern string, fn func(r Router[C])) Router[C] {
	var sub *mux[C]
	m.r.Route(pattern, func(r chi.Router) {
		sub = m.derive(r)
		if fn != nil {
			fn(sub)
		}
	})
	return sub
}

func (m *mux[C]) Mount(pattern string, h http.Handler) {
	if h == nil {
		panic(ErrNilHandler)
	}
	m.r.Mount(pattern, h)
}

func (m *mux[C]) Routes() []Route {
	var routes []Route
	_ = chi.Walk(m.root.r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, Route{Method: method, Pattern: route})
		return nil
	})
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern == routes[j].Pattern {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Pattern < routes[j].Pattern
	})
	return routes
}

func errorResponse(err error) handler.Response {
	return func(http.ResponseWriter, *http.Request) error {
		return err
	}
}
