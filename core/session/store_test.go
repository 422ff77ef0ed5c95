package session_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/core/session"
	"github.com/dmitrymomot/testportal/pkg/broadcast"
)

// mockSlot implements session.Slot for failure paths.
type mockSlot struct {
	mock.Mock
}

func (m *mockSlot) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockSlot) Set(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockSlot) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func testRecord() record.Record {
	return record.Record{
		Identity:    "a@x.com",
		DisplayName: "Ada",
		Secret:      "p1",
		Test:        record.TestDetails{Date: "01 Jan 2025", Center: "Centre"},
		Scores: record.ScoreSet{
			{Name: "Reading", Score: 6.5},
			{Name: "Overall", Score: 7},
		},
		ArtifactRef: "ada.pdf",
	}
}

func nextChange(t *testing.T, sub broadcast.Subscriber[session.Change]) session.Change {
	t.Helper()
	select {
	case msg, ok := <-sub.Receive(context.Background()):
		require.True(t, ok, "subscription closed")
		return msg.Data
	case <-time.After(2 * time.Second):
		t.Fatal("no session change published")
		return session.Change{}
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slot := session.NewMemorySlot()
	store := session.NewStore(slot, nil)

	rec := testRecord()
	require.NoError(t, store.Save(ctx, "client-1", rec))

	loaded, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
	assert.Equal(t, []string{"student:client-1"}, slot.Keys())

	t.Run("slots are per client", func(t *testing.T) {
		_, err := store.Load(ctx, "client-2")
		assert.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("save replaces the previous record", func(t *testing.T) {
		other := testRecord()
		other.Identity = "b@x.com"
		require.NoError(t, store.Save(ctx, "client-1", other))

		loaded, err := store.Load(ctx, "client-1")
		require.NoError(t, err)
		assert.Equal(t, "b@x.com", loaded.Identity)
		assert.Len(t, slot.Keys(), 1)
	})
}

func TestStoreLoadEmpty(t *testing.T) {
	t.Parallel()

	store := session.NewStore(session.NewMemorySlot(), nil)

	_, err := store.Load(context.Background(), "client-1")
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestStoreLoadCorruptData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slot := session.NewMemorySlot()
	var logs bytes.Buffer
	store := session.NewStore(slot, nil,
		session.WithLogger(logger.New(logger.WithOutput(&logs), logger.WithJSONFormatter())),
	)

	for _, raw := range []string{"{not json", `"just a string"`, `{"tests": "nope"}`} {
		require.NoError(t, slot.Set(ctx, "student:client-1", []byte(raw)))

		_, err := store.Load(ctx, "client-1")
		assert.ErrorIs(t, err, session.ErrNoSession, "input %q", raw)
	}

	assert.Contains(t, logs.String(), session.ErrCorruptData.Error())
	assert.Contains(t, logs.String(), "client-1")
}

func TestStoreSaveSerializationFault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slot := session.NewMemorySlot()
	bus := broadcast.NewMemoryBroadcaster[session.Change](4)
	t.Cleanup(func() { _ = bus.Close() })
	store := session.NewStore(slot, bus)
	sub := store.Subscribe(ctx)

	rec := testRecord()
	rec.Scores = append(rec.Scores, record.Score{Name: "Speaking", Score: math.NaN()})

	err := store.Save(ctx, "client-1", rec)
	require.ErrorIs(t, err, session.ErrSerialization)
	assert.Empty(t, slot.Keys(), "nothing is persisted")

	select {
	case msg := <-sub.Receive(ctx):
		t.Fatalf("unexpected change %+v", msg.Data)
	default:
	}

	t.Run("custom marshaler failure", func(t *testing.T) {
		failing := session.NewStore(slot, nil, session.WithMarshaler(func(any) ([]byte, error) {
			return nil, errors.New("encoder down")
		}))
		assert.ErrorIs(t, failing.Save(ctx, "client-1", testRecord()), session.ErrSerialization)
		assert.Empty(t, slot.Keys())
	})
}

func TestStoreClearIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewStore(session.NewMemorySlot(), nil)

	require.NoError(t, store.Save(ctx, "client-1", testRecord()))
	require.NoError(t, store.Clear(ctx, "client-1"))
	require.NoError(t, store.Clear(ctx, "client-1"))
	require.NoError(t, store.Clear(ctx, "never-saved"))

	_, err := store.Load(ctx, "client-1")
	assert.ErrorIs(t, err, session.ErrNoSession)

	assert.ErrorIs(t, store.Clear(ctx, ""), session.ErrEmptyClient)
	assert.ErrorIs(t, store.Save(ctx, "", testRecord()), session.ErrEmptyClient)
}

func TestStorePublishesChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	bus := broadcast.NewMemoryBroadcaster[session.Change](8)
	t.Cleanup(func() { _ = bus.Close() })

	store := session.NewStore(session.NewMemorySlot(), bus)
	tabA := store.Subscribe(ctx)
	tabB := store.Subscribe(ctx)

	require.NoError(t, store.Save(ctx, "client-1", testRecord()))
	for _, tab := range []broadcast.Subscriber[session.Change]{tabA, tabB} {
		c := nextChange(t, tab)
		assert.Equal(t, session.Change{
			Client:   "client-1",
			Kind:     session.ChangeSaved,
			Identity: "a@x.com",
			Origin:   store.Origin(),
		}, c)
		assert.True(t, c.Present())
	}

	// A tab that observes the change sees the completed write.
	loaded, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", loaded.Identity)

	require.NoError(t, store.Clear(ctx, "client-1"))
	for _, tab := range []broadcast.Subscriber[session.Change]{tabA, tabB} {
		c := nextChange(t, tab)
		assert.Equal(t, session.ChangeCleared, c.Kind)
		assert.False(t, c.Present())
	}

	// Clearing again still notifies.
	require.NoError(t, store.Clear(ctx, "client-1"))
	assert.Equal(t, session.ChangeCleared, nextChange(t, tabA).Kind)

	store.Touch(ctx, "client-1", "keydown")
	c := nextChange(t, tabA)
	assert.Equal(t, session.ChangeActivity, c.Kind)
	assert.Equal(t, "keydown", c.Signal)
	assert.False(t, c.SlotChanged())

	other := session.NewStore(session.NewMemorySlot(), bus)
	assert.NotEqual(t, store.Origin(), other.Origin())
}

func TestStoreBackendFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("backend down")

	slot := &mockSlot{}
	slot.On("Set", mock.Anything, "student:client-1", mock.Anything).Return(boom).Once()
	slot.On("Get", mock.Anything, "student:client-1").Return(nil, boom).Once()
	slot.On("Delete", mock.Anything, "student:client-1").Return(boom).Once()

	bus := broadcast.NewMemoryBroadcaster[session.Change](4)
	t.Cleanup(func() { _ = bus.Close() })
	store := session.NewStore(slot, bus)
	sub := store.Subscribe(ctx)

	err := store.Save(ctx, "client-1", testRecord())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, session.ErrSerialization)

	_, err = store.Load(ctx, "client-1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, session.ErrNoSession)

	assert.ErrorIs(t, store.Clear(ctx, "client-1"), boom)

	select {
	case msg := <-sub.Receive(ctx):
		t.Fatalf("failed writes must not publish, got %+v", msg.Data)
	default:
	}

	slot.AssertExpectations(t)
}

func TestStoreKeyPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	slot := session.NewMemorySlot()
	store := session.NewStore(slot, nil, session.WithKeyPrefix("portal:student:"))

	require.NoError(t, store.Save(ctx, "c", testRecord()))
	assert.Equal(t, []string{"portal:student:c"}, slot.Keys())
}

func TestRedisSlot(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL is not set")
	}

	ctx := context.Background()
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	slot := session.NewRedisSlot(client, time.Minute)
	require.NoError(t, slot.Ping(ctx))

	store := session.NewStore(slot, nil, session.WithKeyPrefix("session-test:"))
	t.Cleanup(func() { _ = store.Clear(ctx, t.Name()) })

	_, err = store.Load(ctx, t.Name())
	assert.ErrorIs(t, err, session.ErrNoSession)

	require.NoError(t, store.Save(ctx, t.Name(), testRecord()))
	loaded, err := store.Load(ctx, t.Name())
	require.NoError(t, err)
	assert.Equal(t, testRecord(), loaded)

	require.NoError(t, store.Clear(ctx, t.Name()))
	require.NoError(t, store.Clear(ctx, t.Name()))
	_, err = store.Load(ctx, t.Name())
	assert.ErrorIs(t, err, session.ErrNoSession)
}
