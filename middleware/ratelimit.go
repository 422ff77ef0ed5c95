package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/response"
	"github.com/dmitrymomot/testportal/pkg/ratelimiter"
)

// RateLimit rejects requests over the limiter's budget with 429. Requests
// are keyed by client IP (see ClientIP), falling back to RemoteAddr.
func RateLimit[C handler.Context](limiter ratelimiter.RateLimiter) handler.Middleware[C] {
	if limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			key, ok := GetClientIP(ctx)
			if !ok {
				key = ctx.Request().RemoteAddr
			}

			result, err := limiter.Allow(ctx, key)
			if err != nil {
				return response.Error(response.ErrInternalServerError.WithError(err))
			}

			var resp handler.Response
			if result.Allowed() {
				resp = next(ctx)
			} else {
				resp = response.Error(response.ErrTooManyRequests.WithError(ratelimiter.ErrRateLimitExceeded))
			}
			return withRateLimitHeaders(resp, result)
		}
	}
}

func withRateLimitHeaders(resp handler.Response, result *ratelimiter.Result) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		if !result.Allowed() {
			secs := int(math.Ceil(result.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, secs)))
		}
		return resp(w, r)
	}
}
