// Package middleware holds the HTTP middlewares of the portal: request IDs,
// request logging, client IP extraction, client identification, rate
// limiting, body size limits and security headers.
//
// Every middleware is generic over the handler context type and can be
// registered globally or per route group:
//
//	r := router.New[*router.Context](
//		router.WithMiddleware(
//			middleware.RequestID[*router.Context](),
//			middleware.Logging[*router.Context](log),
//			middleware.SecurityHeaders[*router.Context](false),
//		),
//	)
//	r.With(middleware.RateLimit[*router.Context](limiter)).Post("/login", login)
//
// Middlewares that compute request values store them through
// handler.Context.SetValue; read them back with GetRequestID, GetClientIP
// and GetClient.
package middleware
