package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/testportal/core/cookie"
	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/logger"
)

type clientContextKey struct{}

const (
	// ClientCookie names the signed cookie that identifies a browser.
	ClientCookie = "__client"
	// clientCookieMaxAge keeps the identifier as long as browser storage would.
	clientCookieMaxAge = 400 * 24 * time.Hour
)

// Client identifies the browser behind a request. All tabs of one browser
// share the signed client cookie and therefore one session slot. A missing
// or tampered cookie yields a fresh identifier, which is written back with
// the response.
func Client[C handler.Context](cookies *cookie.Manager, log *slog.Logger) handler.Middleware[C] {
	if log == nil {
		log = logger.Nop()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			id, err := cookies.GetSigned(ctx.Request(), ClientCookie)
			if err == nil {
				if _, perr := uuid.Parse(id); perr != nil {
					err = perr
				}
			}

			issued := false
			if err != nil {
				if !errors.Is(err, cookie.ErrCookieNotFound) {
					log.WarnContext(ctx, "client cookie rejected", logger.Error(err))
				}
				id = uuid.NewString()
				issued = true
			}

			ctx.SetValue(clientContextKey{}, id)
			resp := next(ctx)
			if !issued {
				return resp
			}

			return func(w http.ResponseWriter, r *http.Request) error {
				if err := cookies.SetSigned(w, ClientCookie, id, cookie.WithMaxAge(int(clientCookieMaxAge.Seconds()))); err != nil {
					return err
				}
				return resp(w, r)
			}
		}
	}
}

// GetClient returns the client identifier stored by Client.
func GetClient(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientContextKey{}).(string)
	return id, ok && id != ""
}

// WithClient returns a copy of ctx carrying client id.
func WithClient(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientContextKey{}, id)
}
