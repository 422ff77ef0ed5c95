package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/router"
)

func text(s string) handler.Response {
	return func(w http.ResponseWriter, _ *http.Request) error {
		_, err := w.Write([]byte(s))
		return err
	}
}

type teapotError struct{}

func (teapotError) Error() string   { return "teapot" }
func (teapotError) StatusCode() int { return http.StatusTeapot }

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouterParams(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/file/{ref}", func(ctx *router.Context) handler.Response {
		return text("ref=" + ctx.Param("ref"))
	})

	rec := serve(t, r, http.MethodGet, "/file/report-42.pdf")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ref=report-42.pdf", rec.Body.String())
}

func TestRouterNotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	var handled []error
	r := router.New(router.WithErrorHandler(func(ctx *router.Context, err error) {
		handled = append(handled, err)
		ctx.ResponseWriter().WriteHeader(router.StatusOf(err))
	}))
	r.Post("/login", func(*router.Context) handler.Response { return text("ok") })

	rec := serve(t, r, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, r, http.MethodGet, "/login")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	require.Len(t, handled, 2)
	assert.ErrorIs(t, handled[0], router.ErrNotFound)
	assert.ErrorIs(t, handled[1], router.ErrMethodNotAllowed)
}

func TestRouterErrorStatus(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/teapot", func(*router.Context) handler.Response {
		return func(http.ResponseWriter, *http.Request) error { return teapotError{} }
	})
	r.Get("/nil", func(*router.Context) handler.Response { return nil })
	r.Get("/boom", func(*router.Context) handler.Response {
		return func(http.ResponseWriter, *http.Request) error { return errors.New("boom") }
	})

	assert.Equal(t, http.StatusTeapot, serve(t, r, http.MethodGet, "/teapot").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(t, r, http.MethodGet, "/nil").Code)

	rec := serve(t, r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRouterRecoversPanics(t *testing.T) {
	t.Parallel()

	var got error
	r := router.New(router.WithErrorHandler(func(ctx *router.Context, err error) {
		got = err
		ctx.ResponseWriter().WriteHeader(http.StatusInternalServerError)
	}))
	r.Get("/panic", func(*router.Context) handler.Response {
		panic("kaboom")
	})

	rec := serve(t, r, http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var perr *router.PanicError
	require.ErrorAs(t, got, &perr)
	assert.Equal(t, "kaboom", perr.Value)
	assert.NotEmpty(t, perr.Stack)
}

func TestRouterMiddlewareScopes(t *testing.T) {
	t.Parallel()

	tag := func(name string) handler.Middleware[*router.Context] {
		return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
			return func(ctx *router.Context) handler.Response {
				ctx.ResponseWriter().Header().Add("X-Trace", name)
				return next(ctx)
			}
		}
	}

	r := router.New[*router.Context]()
	r.Use(tag("global"))
	r.Get("/", func(*router.Context) handler.Response { return text("root") })
	r.With(tag("with")).Get("/with", func(*router.Context) handler.Response { return text("with") })
	r.Group(func(g router.Router[*router.Context]) {
		g.Use(tag("group"))
		g.Get("/group", func(*router.Context) handler.Response { return text("group") })
	})
	r.Route("/session", func(s router.Router[*router.Context]) {
		s.Post("/activity", func(*router.Context) handler.Response { return text("activity") })
	})

	assert.Equal(t, []string{"global"}, serve(t, r, http.MethodGet, "/").Header().Values("X-Trace"))
	assert.Equal(t, []string{"global", "with"}, serve(t, r, http.MethodGet, "/with").Header().Values("X-Trace"))
	assert.Equal(t, []string{"global", "group"}, serve(t, r, http.MethodGet, "/group").Header().Values("X-Trace"))

	rec := serve(t, r, http.MethodPost, "/session/activity")
	assert.Equal(t, "activity", rec.Body.String())
	assert.Equal(t, []string{"global"}, rec.Header().Values("X-Trace"))
}

func TestRouterSetValue(t *testing.T) {
	t.Parallel()

	type key struct{}
	r := router.New[*router.Context]()
	r.Use(func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
		return func(ctx *router.Context) handler.Response {
			ctx.SetValue(key{}, "client-1")
			return next(ctx)
		}
	})
	r.Get("/{name}", func(ctx *router.Context) handler.Response {
		v, _ := ctx.Value(key{}).(string)
		fromReq, _ := ctx.Request().Context().Value(key{}).(string)
		return text(v + "|" + fromReq + "|" + ctx.Param("name"))
	})

	rec := serve(t, r, http.MethodGet, "/home")
	assert.Equal(t, "client-1|client-1|home", rec.Body.String())
}

func TestRouterRoutesAndMount(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/home", func(*router.Context) handler.Response { return text("home") })
	r.Post("/login", func(*router.Context) handler.Response { return text("login") })
	r.Mount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	}))

	var patterns []string
	for _, route := range r.Routes() {
		patterns = append(patterns, route.Method+" "+route.Pattern)
	}
	joined := strings.Join(patterns, ",")
	assert.Contains(t, joined, "GET /home")
	assert.Contains(t, joined, "POST /login")

	assert.Equal(t, "metrics", serve(t, r, http.MethodGet, "/metrics").Body.String())
}
