package ratelimiter

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidConfig     = errors.New("invalid rate limiter configuration")
	ErrAlreadyRunning    = errors.New("rate limiter cleanup already running")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Result describes one limiting decision.
type Result struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	retryAfter time.Duration
	allowed    bool
}

// Allowed reports whether the request may proceed.
func (r *Result) Allowed() bool { return r.allowed }

// RetryAfter is how long a rejected client should wait. Zero when allowed.
func (r *Result) RetryAfter() time.Duration { return r.retryAfter }

// Config is a token bucket: Burst tokens, refilled at Rate per Per.
type Config struct {
	Rate    int           `env:"RATE_LIMIT_RATE" envDefault:"10"`
	Per     time.Duration `env:"RATE_LIMIT_PER" envDefault:"1m"`
	Burst   int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	IdleTTL time.Duration `env:"RATE_LIMIT_IDLE_TTL" envDefault:"1h"`
}

func (c Config) validate() error {
	if c.Rate <= 0 || c.Per <= 0 || c.Burst <= 0 {
		return ErrInvalidConfig
	}
	return nil
}
