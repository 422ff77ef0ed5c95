package middleware

import (
	"net/http"

	"github.com/dmitrymomot/testportal/core/handler"
)

// portalCSP allows the embedded assets and same-origin WebSocket sync only.
const portalCSP = "default-src 'self'; connect-src 'self'; img-src 'self' data:; style-src 'self'; script-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'"

// SecurityHeaders sets the response security headers. HSTS is skipped in
// development so plain-HTTP local runs keep working.
func SecurityHeaders[C handler.Context](development bool) handler.Middleware[C] {
	headers := map[string]string{
		"X-Content-Type-Options":     "nosniff",
		"X-Frame-Options":            "DENY",
		"Referrer-Policy":            "same-origin",
		"Content-Security-Policy":    portalCSP,
		"Cross-Origin-Opener-Policy": "same-origin",
		"Permissions-Policy":         "camera=(), microphone=(), geolocation=()",
	}
	if !development {
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			resp := next(ctx)
			return func(w http.ResponseWriter, r *http.Request) error {
				for k, v := range headers {
					w.Header().Set(k, v)
				}
				return resp(w, r)
			}
		}
	}
}
