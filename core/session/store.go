package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/pkg/broadcast"
)

// Store reads and writes the current record of each client.
type Store struct {
	slot    Slot
	bus     broadcast.Broadcaster[Change]
	prefix  string
	origin  string
	logger  *slog.Logger
	marshal func(any) ([]byte, error)
}

// NewStore creates a store over slot. bus may be nil, in which case changes
// are not published.
func NewStore(slot Slot, bus broadcast.Broadcaster[Change], opts ...Option) *Store {
	s := &Store{
		slot:    slot,
		bus:     bus,
		prefix:  DefaultKeyPrefix,
		origin:  uuid.NewString(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		marshal: json.Marshal,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Origin identifies this store on the broadcaster. Each portal instance has
// its own.
func (s *Store) Origin() string {
	return s.origin
}

func (s *Store) key(client string) string {
	return s.prefix + client
}

// Save replaces the client's record. The record is encoded before anything
// is written.
func (s *Store) Save(ctx context.Context, client string, rec record.Record) error {
	if client == "" {
		return ErrEmptyClient
	}

	data, err := s.marshal(rec)
	if err != nil {
		return errors.Join(ErrSerialization, err)
	}

	if err := s.slot.Set(ctx, s.key(client), data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.publish(ctx, Change{Client: client, Kind: ChangeSaved, Identity: rec.Identity})
	return nil
}

// Load returns the client's record, or ErrNoSession when there is none or
// the stored value does not decode.
func (s *Store) Load(ctx context.Context, client string) (record.Record, error) {
	if client == "" {
		return record.Record{}, ErrNoSession
	}

	data, err := s.slot.Get(ctx, s.key(client))
	if errors.Is(err, ErrSlotEmpty) {
		return record.Record{}, ErrNoSession
	}
	if err != nil {
		return record.Record{}, fmt.Errorf("load session: %w", err)
	}

	var rec record.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.WarnContext(ctx, "session slot holds undecodable data",
			logger.Component("session"),
			logger.Client(client),
			logger.Error(errors.Join(ErrCorruptData, err)),
		)
		return record.Record{}, ErrNoSession
	}

	return rec, nil
}

// Clear removes the client's record. Clearing an empty slot succeeds and
// still publishes a change.
func (s *Store) Clear(ctx context.Context, client string) error {
	if client == "" {
		return ErrEmptyClient
	}

	if err := s.slot.Delete(ctx, s.key(client)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.publish(ctx, Change{Client: client, Kind: ChangeCleared})
	return nil
}

// Touch announces activity of client to the other instances sharing the
// broadcaster. Nothing is written to the slot.
func (s *Store) Touch(ctx context.Context, client, signal string) {
	if client == "" {
		return
	}
	s.publish(ctx, Change{Client: client, Kind: ChangeActivity, Signal: signal})
}

// Subscribe follows changes of every client's slot. Without a broadcaster
// the returned subscriber never delivers.
func (s *Store) Subscribe(ctx context.Context) broadcast.Subscriber[Change] {
	if s.bus == nil {
		return broadcast.NewMemoryBroadcaster[Change](0).Subscribe(ctx)
	}
	return s.bus.Subscribe(ctx)
}

func (s *Store) publish(ctx context.Context, c Change) {
	if s.bus == nil {
		return
	}
	c.Origin = s.origin
	// The write already happened; a failed notification must not undo it.
	if err := s.bus.Broadcast(context.WithoutCancel(ctx), broadcast.Message[Change]{Data: c}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish session change",
			logger.Component("session"),
			logger.Client(c.Client),
			logger.Event(string(c.Kind)),
			logger.Error(err),
		)
	}
}
