// Package ratelimiter provides per-key token bucket rate limiting.
//
// MemoryLimiter keeps a golang.org/x/time/rate limiter for every key (usually
// the client IP). Config describes the bucket: Burst tokens refilled at Rate
// tokens per Per. A rejected Result carries the wait time until the next
// token, which the HTTP middleware turns into a Retry-After header.
//
//	limiter, err := ratelimiter.NewMemory(ratelimiter.Config{Rate: 10, Per: time.Minute, Burst: 5})
//	if err != nil {
//		return err
//	}
//	g.Go(limiter.Run(ctx)) // sweep idle keys
//
//	res, err := limiter.Allow(ctx, clientIP)
//	if err == nil && !res.Allowed() {
//		// 429, retry after res.RetryAfter()
//	}
package ratelimiter
