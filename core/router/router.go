package router

import (
	"net/http"

	"github.com/dmitrymomot/testportal/core/handler"
)

// Router registers typed handlers on a chi routing tree.
type Router[C handler.Context] interface {
	http.Handler

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	// Method registers h once per listed method.
	Method(pattern string, h handler.HandlerFunc[C], methods ...string)
	// Mount attaches a plain handler. Router middlewares are not applied.
	Mount(pattern string, h http.Handler)

	Use(middlewares ...handler.Middleware[C])
	With(middlewares ...handler.Middleware[C]) Router[C]
	Group(fn func(r Router[C])) Router[C]
	Route(pattern string, fn func(r Router[C])) Router[C]

	// Routes lists every registered method and pattern, sorted.
	Routes() []Route
}

type Route struct {
	Method  string
	Pattern string
}

// New creates a router. A context type other than *Context needs
// WithContextFactory.
func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux(opts...)
}
