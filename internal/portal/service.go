package portal

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/testportal/core/idle"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/login"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/core/session"
	"github.com/dmitrymomot/testportal/pkg/broadcast"
)

// Config holds the portal feature flags.
type Config struct {
	// DemoFallback shows the first directory record on the dashboard when
	// there is no session.
	DemoFallback bool `env:"PORTAL_DEMO_FALLBACK" envDefault:"false"`
}

// SessionState is what a tab needs to know after a slot change.
type SessionState struct {
	Present  bool
	Identity string
}

// Service ties credential resolution, the session slot and idle monitors
// together. Every operation is keyed by client ID.
type Service struct {
	resolver     *login.Resolver
	store        *session.Store
	monitors     *idle.Registry
	dir          record.Directory
	demoFallback bool
	metrics      *Metrics
	log          *slog.Logger

	// Per-client critical sections for slot writes paired with monitor
	// changes. Striped so the set stays bounded.
	stripes [64]sync.Mutex

	stopRelay context.CancelFunc
	relayDone chan struct{}
	closeOnce sync.Once
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDemoFallback enables DemoFallback.
func WithDemoFallback(enabled bool) Option {
	return func(s *Service) {
		s.demoFallback = enabled
	}
}

// New builds a Service and starts following the store's broadcaster, so idle
// monitors on this instance see activity and slot writes made by other
// instances. The directory backs DemoFallback only; resolution goes through
// the resolver.
func New(resolver *login.Resolver, store *session.Store, monitors *idle.Registry, dir record.Directory, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		store:    store,
		monitors: monitors,
		dir:      dir,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopRelay = cancel
	s.relayDone = make(chan struct{})
	go s.relay(ctx, store.Subscribe(ctx))

	return s
}

// LoginWithCredentials resolves the pair, stores the record in the client's
// slot and starts a fresh idle window. Invalid credentials leave the slot
// as it was.
func (s *Service) LoginWithCredentials(ctx context.Context, client, identity, secret string) (record.Record, error) {
	rec, err := s.resolver.Resolve(ctx, identity, secret)
	switch {
	case err == nil:
	case errors.Is(err, login.ErrInvalidCredentials):
		s.metrics.login(ResultInvalid)
		return record.Record{}, err
	case errors.Is(err, login.ErrMissingIdentity), errors.Is(err, login.ErrMissingSecret):
		s.metrics.login(ResultMissing)
		return record.Record{}, err
	default:
		s.metrics.login(ResultError)
		s.log.ErrorContext(ctx, "credential lookup failed",
			logger.Component("portal"),
			logger.Client(client),
			logger.Error(err),
		)
		return record.Record{}, errors.Join(ErrLoginFailed, err)
	}

	unlock := s.lock(client)
	defer unlock()

	if err := s.store.Save(ctx, client, rec); err != nil {
		s.metrics.login(ResultError)
		s.log.ErrorContext(ctx, "failed to store session",
			logger.Component("portal"),
			logger.Client(client),
			logger.Identity(rec.Identity),
			logger.Error(err),
		)
		return record.Record{}, errors.Join(ErrLoginFailed, err)
	}

	s.monitors.Disarm(client)
	s.monitors.Arm(client, s.expire(client))

	s.metrics.login(ResultSuccess)
	s.log.InfoContext(ctx, "logged in",
		logger.Component("portal"),
		logger.Client(client),
		logger.Identity(rec.Identity),
	)
	return rec, nil
}

// GetCurrentSession returns the client's record. A stored session without a
// running monitor, as after a restart, gets one armed.
func (s *Service) GetCurrentSession(ctx context.Context, client string) (record.Record, bool) {
	unlock := s.lock(client)
	defer unlock()

	rec, err := s.store.Load(ctx, client)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			s.log.ErrorContext(ctx, "failed to load session",
				logger.Component("portal"),
				logger.Client(client),
				logger.Error(err),
			)
		}
		return record.Record{}, false
	}

	if s.monitors.Arm(client, s.expire(client)) {
		s.log.DebugContext(ctx, "idle monitor re-armed for stored session",
			logger.Component("portal"),
			logger.Client(client),
		)
	}
	return rec, true
}

// Logout ends the client's session. Logging out without a session succeeds.
func (s *Service) Logout(ctx context.Context, client string) error {
	unlock := s.lock(client)
	defer unlock()

	return s.end(ctx, client, ReasonUser)
}

// Activity renews the client's idle deadline here and on every other
// instance. A stored session without a local monitor gets one armed. It
// reports false when the client has no session.
func (s *Service) Activity(ctx context.Context, client string, sig idle.Signal) bool {
	if !s.monitors.Signal(client, sig) {
		if _, ok := s.GetCurrentSession(ctx, client); !ok {
			return false
		}
	}
	s.store.Touch(ctx, client, sig.String())
	return true
}

// Watch emits the client's session state once immediately and again after
// every change to its slot. The channel closes when ctx is done.
func (s *Service) Watch(ctx context.Context, client string) <-chan SessionState {
	sub := s.store.Subscribe(ctx)
	out := make(chan SessionState, 1)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		if !s.emit(ctx, out, s.state(ctx, client)) {
			return
		}
		for msg := range sub.Receive(ctx) {
			if msg.Data.Client != client || !msg.Data.SlotChanged() {
				continue
			}
			// Reload so the tab sees the latest write, not the one announced.
			if !s.emit(ctx, out, s.state(ctx, client)) {
				return
			}
		}
	}()

	return out
}

// DemoFallback returns the first directory record when the fallback is
// enabled.
func (s *Service) DemoFallback(ctx context.Context) (record.Record, bool) {
	if !s.demoFallback || s.dir == nil {
		return record.Record{}, false
	}
	rec, ok, err := record.First(ctx, s.dir)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to read demo record", logger.Component("portal"), logger.Error(err))
		return record.Record{}, false
	}
	return rec, ok
}

// Close stops following other instances and stops every idle monitor
// without ending sessions.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.stopRelay()
		<-s.relayDone
	})
	s.monitors.Close()
}

// relay applies changes published by other instances. Their activity renews
// the local monitor. Their slot writes disarm it; the writer holds its own
// and a page load here arms a new one.
func (s *Service) relay(ctx context.Context, sub broadcast.Subscriber[session.Change]) {
	defer close(s.relayDone)
	defer func() { _ = sub.Close() }()

	for msg := range sub.Receive(ctx) {
		c := msg.Data
		if c.Origin == s.store.Origin() || c.Client == "" {
			continue
		}

		switch {
		case c.Kind == session.ChangeActivity:
			sig, err := idle.ParseSignal(c.Signal)
			if err != nil {
				continue
			}
			s.monitors.Signal(c.Client, sig)
		case c.SlotChanged():
			unlock := s.lock(c.Client)
			s.monitors.Disarm(c.Client)
			unlock()
		default:
			continue
		}
		s.metrics.relay(string(c.Kind))
	}
}

func (s *Service) state(ctx context.Context, client string) SessionState {
	rec, err := s.store.Load(ctx, client)
	if err != nil {
		return SessionState{}
	}
	return SessionState{Present: true, Identity: rec.Identity}
}

func (s *Service) emit(ctx context.Context, out chan<- SessionState, st SessionState) bool {
	select {
	case out <- st:
		return true
	case <-ctx.Done():
		return false
	}
}

// expire is the monitor callback; it runs on the scheduler's goroutine.
func (s *Service) expire(client string) func() {
	return func() {
		ctx := context.Background()
		unlock := s.lock(client)
		defer unlock()

		// A login or page load re-armed the client after this deadline
		// fired; the session it saw stays.
		if s.monitors.Active(client) {
			return
		}

		s.log.InfoContext(ctx, "session expired after inactivity",
			logger.Component("portal"),
			logger.Client(client),
		)
		if err := s.end(ctx, client, ReasonIdle); err != nil {
			s.log.ErrorContext(ctx, "failed to clear expired session",
				logger.Component("portal"),
				logger.Client(client),
				logger.Error(err),
			)
		}
	}
}

func (s *Service) lock(client string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(client))
	mu := &s.stripes[h.Sum32()%uint32(len(s.stripes))]
	mu.Lock()
	return mu.Unlock
}

func (s *Service) end(ctx context.Context, client, reason string) error {
	s.monitors.Disarm(client)
	if err := s.store.Clear(ctx, client); err != nil {
		return err
	}
	s.metrics.logout(reason)
	s.log.InfoContext(ctx, "session ended",
		logger.Component("portal"),
		logger.Client(client),
		logger.Reason(reason),
	)
	return nil
}
