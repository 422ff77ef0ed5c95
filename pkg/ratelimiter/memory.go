package ratelimiter

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

var _ RateLimiter = (*MemoryLimiter)(nil)

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// MemoryLimiter keeps one golang.org/x/time/rate limiter per key.
// Keys unused for longer than Config.IdleTTL are dropped by Run.
type MemoryLimiter struct {
	cfg     Config
	limit   rate.Limit
	clock   clockwork.Clock
	logger  *slog.Logger
	cleanup time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	running bool
}

// Option configures a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(l *MemoryLimiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger sets the logger used by the cleanup loop.
func WithLogger(logger *slog.Logger) Option {
	return func(l *MemoryLimiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithCleanupInterval sets how often idle keys are swept.
func WithCleanupInterval(d time.Duration) Option {
	return func(l *MemoryLimiter) {
		if d > 0 {
			l.cleanup = d
		}
	}
}

// NewMemory creates an in-memory limiter.
func NewMemory(cfg Config, opts ...Option) (*MemoryLimiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Hour
	}
	l := &MemoryLimiter{
		cfg:     cfg,
		limit:   rate.Limit(float64(cfg.Rate) / cfg.Per.Seconds()),
		clock:   clockwork.NewRealClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		cleanup: 5 * time.Minute,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow consumes one token for key.
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := l.clock.Now()

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.cfg.Burst)}
		l.entries[key] = e
	}
	e.lastAccess = now
	lim := e.limiter
	l.mu.Unlock()

	res := &Result{Limit: l.cfg.Burst}
	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.retryAfter = delay
		res.ResetAt = now.Add(delay)
		return res, nil
	}

	res.allowed = true
	tokens := lim.TokensAt(now)
	res.Remaining = int(math.Floor(tokens))
	missing := float64(l.cfg.Burst) - tokens
	res.ResetAt = now.Add(time.Duration(missing / float64(l.limit) * float64(time.Second)))
	return res, nil
}

// Reset forgets the state of key.
func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Sweep drops keys idle for longer than the configured TTL and returns how
// many were removed.
func (l *MemoryLimiter) Sweep() int {
	cutoff := l.clock.Now().Add(-l.cfg.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if e.lastAccess.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Run returns a function for errgroup that sweeps idle keys until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context) func() error {
	return func() error {
		l.mu.Lock()
		if l.running {
			l.mu.Unlock()
			return ErrAlreadyRunning
		}
		l.running = true
		l.mu.Unlock()
		defer func() {
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
		}()

		ticker := l.clock.NewTicker(l.cleanup)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.Chan():
				if n := l.Sweep(); n > 0 {
					l.logger.DebugContext(ctx, "rate limiter swept idle keys", slog.Int("removed", n))
				}
			}
		}
	}
}
