package handler

import (
	"context"
	"net/http"
)

// Context is the per-request context handed to portal handlers.
// It embeds the request context so it can be passed straight to store and
// service calls that take a context.Context.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}

// Response renders a result onto the wire. Returning an error hands the
// request over to the router's error handler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc handles one request and returns the response to render.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler renders errors returned by a Response or raised in a handler.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps a handler.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]

// Chain applies middlewares so that the first one is the outermost.
func Chain[C Context](h HandlerFunc[C], middlewares ...Middleware[C]) HandlerFunc[C] {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
