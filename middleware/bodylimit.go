package middleware

import (
	"net/http"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/response"
)

// BodyLimit rejects bodies declared larger than maxBytes and caps reads of
// the rest, so a form post cannot stream an unbounded body.
func BodyLimit[C handler.Context](maxBytes int64) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			req := ctx.Request()
			if req.ContentLength > maxBytes {
				return response.Error(response.ErrPayloadTooLarge)
			}
			if req.Body != nil && req.Body != http.NoBody {
				req.Body = http.MaxBytesReader(ctx.ResponseWriter(), req.Body, maxBytes)
			}
			return next(ctx)
		}
	}
}
