package middleware

import (
	"context"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/pkg/clientip"
)

type clientIPContextKey struct{}

// ClientIP stores the client address in the context. Proxy headers are only
// honoured with trustProxy.
func ClientIP[C handler.Context](trustProxy bool) handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			ip := clientip.Direct(ctx.Request())
			if trustProxy {
				ip = clientip.FromRequest(ctx.Request())
			}
			ctx.SetValue(clientIPContextKey{}, ip)
			return next(ctx)
		}
	}
}

// GetClientIP returns the address stored by ClientIP.
func GetClientIP(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPContextKey{}).(string)
	return ip, ok
}
