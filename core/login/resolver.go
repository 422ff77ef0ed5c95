package login

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/record"
)

// Config holds the environment settings of login resolution.
type Config struct {
	// Delay is an artificial wait before every answer.
	Delay time.Duration `env:"PORTAL_LOGIN_DELAY" envDefault:"0s"`
}

// Resolver matches credentials against a directory.
type Resolver struct {
	dir    record.Directory
	delay  time.Duration
	after  func(time.Duration) <-chan time.Time
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDelay makes every resolution wait d before answering. The wait ends
// early when the context is cancelled.
func WithDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.delay = max(d, 0)
	}
}

// WithTimer replaces time.After, for tests.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(r *Resolver) {
		if after != nil {
			r.after = after
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewResolver(dir record.Directory, opts ...Option) *Resolver {
	r := &Resolver{
		dir:    dir,
		after:  time.After,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the first record whose identity and secret equal the
// given values. Empty fields are rejected before the directory is read.
func (r *Resolver) Resolve(ctx context.Context, identity, secret string) (record.Record, error) {
	if strings.TrimSpace(identity) == "" {
		return record.Record{}, ErrMissingIdentity
	}
	if secret == "" {
		return record.Record{}, ErrMissingSecret
	}

	if r.delay > 0 {
		select {
		case <-ctx.Done():
			return record.Record{}, ctx.Err()
		case <-r.after(r.delay):
		}
	}

	rec, ok, err := record.FindByCredentials(ctx, r.dir, identity, secret)
	if err != nil {
		return record.Record{}, fmt.Errorf("lookup credentials: %w", err)
	}
	if !ok {
		r.logger.InfoContext(ctx, "credentials rejected",
			logger.Component("login"),
			logger.Result("invalid"),
		)
		return record.Record{}, ErrInvalidCredentials
	}

	return rec, nil
}
