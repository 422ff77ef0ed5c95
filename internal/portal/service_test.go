package portal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/testportal/core/idle"
	"github.com/dmitrymomot/testportal/core/login"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/core/session"
	"github.com/dmitrymomot/testportal/internal/portal"
	"github.com/dmitrymomot/testportal/pkg/broadcast"
)

const timeout = 15 * time.Minute

type fixture struct {
	svc     *portal.Service
	slot    *session.MemorySlot
	clock   *clockwork.FakeClock
	metrics *portal.Metrics
	reg     *prometheus.Registry
}

func records() []record.Record {
	return []record.Record{
		{
			Identity:    "a@x.com",
			DisplayName: "Ada",
			Secret:      "p1",
			Scores:      record.ScoreSet{{Name: "Reading", Score: 7}, {Name: "Overall", Score: 7}},
			ArtifactRef: "ada.pdf",
		},
		{Identity: "b@x.com", DisplayName: "Bo", Secret: "p2"},
	}
}

func newFixture(t *testing.T, opts ...portal.Option) *fixture {
	t.Helper()

	dir, err := record.NewStaticDirectory(records())
	require.NoError(t, err)

	bus := broadcast.NewMemoryBroadcaster[session.Change](16)
	t.Cleanup(func() { _ = bus.Close() })

	f := &fixture{
		slot:  session.NewMemorySlot(),
		clock: clockwork.NewFakeClock(),
		reg:   prometheus.NewRegistry(),
	}
	f.metrics = portal.NewMetrics(f.reg)

	monitors := idle.NewRegistry(timeout, idle.NewClockScheduler(f.clock), idle.WithObserver(f.metrics.ObserveMonitors))
	store := session.NewStore(f.slot, bus)
	opts = append([]portal.Option{portal.WithMetrics(f.metrics)}, opts...)
	f.svc = portal.New(login.NewResolver(dir), store, monitors, dir, opts...)
	t.Cleanup(f.svc.Close)
	return f
}

// absent waits for the expiry callback to clear the slot. It does not poll
// GetCurrentSession, which would re-arm a monitor for a session still
// being cleared.
func (f *fixture) absent(t *testing.T, client string) {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.slot.Keys()) == 0 }, 2*time.Second, 5*time.Millisecond)
	_, ok := f.svc.GetCurrentSession(context.Background(), client)
	assert.False(t, ok)
}

func TestLoginResolvesExactPairsOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		identity, secret string
		ok               bool
	}{
		{"a@x.com", "p1", true},
		{"b@x.com", "p2", true},
		{"a@x.com", "p2", false},
		{"A@x.com", "p1", false},
		{"a@x.com ", "p1", false},
		{"a@x.com", "P1", false},
		{"c@x.com", "p1", false},
	}
	for _, tc := range cases {
		rec, err := f.svc.LoginWithCredentials(ctx, "client-"+tc.identity+tc.secret, tc.identity, tc.secret)
		if tc.ok {
			require.NoError(t, err, "%s/%s", tc.identity, tc.secret)
			assert.Equal(t, tc.identity, rec.Identity)
		} else {
			assert.ErrorIs(t, err, login.ErrInvalidCredentials, "%s/%s", tc.identity, tc.secret)
		}
	}

	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.Logins().WithLabelValues(portal.ResultSuccess)), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(f.metrics.Logins().WithLabelValues(portal.ResultInvalid)), 0)
}

func TestLoginSessionVisibleToEveryTab(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", rec.Identity)

	// A second tab of the same client reads the same slot.
	for range 2 {
		got, ok := f.svc.GetCurrentSession(ctx, "c1")
		require.True(t, ok)
		assert.Equal(t, rec, got)
	}

	_, ok := f.svc.GetCurrentSession(ctx, "c2")
	assert.False(t, ok, "other clients do not share the slot")
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Monitors()), 0)
}

func TestInvalidLoginLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "wrong")
	require.ErrorIs(t, err, login.ErrInvalidCredentials)
	_, ok := f.svc.GetCurrentSession(ctx, "c1")
	assert.False(t, ok)

	_, err = f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err)
	_, err = f.svc.LoginWithCredentials(ctx, "c1", "b@x.com", "nope")
	require.ErrorIs(t, err, login.ErrInvalidCredentials)

	rec, ok := f.svc.GetCurrentSession(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, "a@x.com", rec.Identity, "failed attempt keeps the previous session")

	_, err = f.svc.LoginWithCredentials(ctx, "c1", "", "p1")
	assert.ErrorIs(t, err, login.ErrMissingIdentity)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Logins().WithLabelValues(portal.ResultMissing)), 0)
}

func TestIdleExpiryClearsSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err)

	f.clock.Advance(timeout - time.Second)
	_, ok := f.svc.GetCurrentSession(ctx, "c1")
	require.True(t, ok)

	f.clock.Advance(time.Second)
	f.absent(t, "c1")
	assert.Empty(t, f.slot.Keys())
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.Logouts().WithLabelValues(portal.ReasonIdle)) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.Monitors()), 0)
}

func TestActivityKeepsSessionAlive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err)

	for _, sig := range []idle.Signal{idle.SignalMouseMove, idle.SignalKeyDown, idle.SignalScroll, idle.SignalTouchStart, idle.SignalKeyDown} {
		f.clock.Advance(timeout - time.Minute)
		require.True(t, f.svc.Activity(ctx, "c1", sig))
		_, ok := f.svc.GetCurrentSession(ctx, "c1")
		require.True(t, ok)
	}

	f.clock.Advance(timeout - time.Minute)
	_, ok := f.svc.GetCurrentSession(ctx, "c1")
	require.True(t, ok, "one minute left after the last signal")

	f.clock.Advance(time.Minute)
	f.absent(t, "c1")
	assert.False(t, f.svc.Activity(ctx, "c1", idle.SignalKeyDown))
}

func TestLogoutIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, "c1"))
	_, ok := f.svc.GetCurrentSession(ctx, "c1")
	assert.False(t, ok)

	require.NoError(t, f.svc.Logout(ctx, "c1"))
	_, ok = f.svc.GetCurrentSession(ctx, "c1")
	assert.False(t, ok)

	// The cancelled deadline never fires a second logout.
	f.clock.Advance(timeout * 2)
	time.Sleep(20 * time.Millisecond)
	assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.Logouts().WithLabelValues(portal.ReasonIdle)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.Logouts().WithLabelValues(portal.ReasonUser)), 0)
}

func TestCorruptSlotReadsAsNoSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.slot.Set(ctx, "student:c1", []byte("{broken")))
	_, ok := f.svc.GetCurrentSession(ctx, "c1")
	assert.False(t, ok)

	_, err := f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err, "login overwrites corrupt data")
	_, ok = f.svc.GetCurrentSession(ctx, "c1")
	assert.True(t, ok)
}

func TestStoredSessionGetsMonitorAfterRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err)

	// Simulate a restart: monitors are gone, the slot survives.
	f.svc.Close()
	assert.Zero(t, testutil.ToFloat64(f.metrics.Monitors()))

	// Activity alone is enough to arm a monitor for the stored session.
	assert.True(t, f.svc.Activity(ctx, "c1", idle.SignalScroll))
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Monitors()), 0)

	f.clock.Advance(timeout)
	f.absent(t, "c1")
}

func TestLoginFailsWhenSlotRejectsWrite(t *testing.T) {
	t.Parallel()

	dir, err := record.NewStaticDirectory(records())
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	monitors := idle.NewRegistry(timeout, idle.NewClockScheduler(clock))
	store := session.NewStore(failingSlot{}, nil)
	svc := portal.New(login.NewResolver(dir), store, monitors, dir)
	t.Cleanup(svc.Close)

	_, err = svc.LoginWithCredentials(context.Background(), "c1", "a@x.com", "p1")
	assert.ErrorIs(t, err, portal.ErrLoginFailed)
	assert.Zero(t, monitors.Len(), "no monitor without a stored session")
}

func TestWatchFollowsClientSlot(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t)

	states := f.svc.Watch(ctx, "c1")
	next := func() portal.SessionState {
		t.Helper()
		select {
		case st := <-states:
			return st
		case <-time.After(2 * time.Second):
			t.Fatal("no session state")
			return portal.SessionState{}
		}
	}

	assert.Equal(t, portal.SessionState{}, next())

	_, err := f.svc.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, portal.SessionState{Present: true, Identity: "a@x.com"}, next())

	// Another client's change is not delivered.
	_, err = f.svc.LoginWithCredentials(ctx, "c2", "b@x.com", "p2")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, "c1"))
	assert.Equal(t, portal.SessionState{}, next())

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-states
		return !open
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDemoFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, ok := newFixture(t).svc.DemoFallback(ctx)
	assert.False(t, ok, "disabled by default")

	rec, ok := newFixture(t, portal.WithDemoFallback(true)).svc.DemoFallback(ctx)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", rec.Identity)
}

type failingSlot struct{}

func (failingSlot) Get(context.Context, string) ([]byte, error) { return nil, session.ErrSlotEmpty }
func (failingSlot) Set(context.Context, string, []byte) error  { return errors.New("slot down") }
func (failingSlot) Delete(context.Context, string) error       { return nil }

func TestInstancesShareActivity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir, err := record.NewStaticDirectory(records())
	require.NoError(t, err)

	slot := session.NewMemorySlot()
	bus := broadcast.NewMemoryBroadcaster[session.Change](16)
	t.Cleanup(func() { _ = bus.Close() })
	clock := clockwork.NewFakeClock()

	instance := func() (*portal.Service, *portal.Metrics) {
		m := portal.NewMetrics(prometheus.NewRegistry())
		monitors := idle.NewRegistry(timeout, idle.NewClockScheduler(clock), idle.WithObserver(m.ObserveMonitors))
		svc := portal.New(login.NewResolver(dir), session.NewStore(slot, bus), monitors, dir, portal.WithMetrics(m))
		t.Cleanup(svc.Close)
		return svc, m
	}
	a, _ := instance()
	b, bm := instance()

	relayed := func(kind session.ChangeKind) float64 {
		return testutil.ToFloat64(bm.Relayed().WithLabelValues(string(kind)))
	}

	_, err = a.LoginWithCredentials(ctx, "c1", "a@x.com", "p1")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return relayed(session.ChangeSaved) == 1 }, 2*time.Second, 5*time.Millisecond)

	// A page load served by the second instance arms a monitor there.
	_, ok := b.GetCurrentSession(ctx, "c1")
	require.True(t, ok)
	require.InDelta(t, 1, testutil.ToFloat64(bm.Monitors()), 0)

	// The tab's socket stays on the first instance.
	for i := 1; i <= 3; i++ {
		clock.Advance(10 * time.Minute)
		require.True(t, a.Activity(ctx, "c1", idle.SignalKeyDown))
		require.Eventually(t, func() bool { return relayed(session.ChangeActivity) == float64(i) }, 2*time.Second, 5*time.Millisecond)

		_, ok := a.GetCurrentSession(ctx, "c1")
		require.True(t, ok, "active user logged out after %d minutes", i*10)
	}
	assert.Zero(t, testutil.ToFloat64(bm.Logouts().WithLabelValues(portal.ReasonIdle)))

	clock.Advance(timeout)
	require.Eventually(t, func() bool { return len(slot.Keys()) == 0 }, 2*time.Second, 5*time.Millisecond)
}
