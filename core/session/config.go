package session

import (
	"log/slog"
	"time"
)

// Config holds the environment settings of the session slot.
type Config struct {
	Slot            string        `env:"SESSION_SLOT" envDefault:"memory"`
	KeyPrefix       string        `env:"SESSION_KEY_PREFIX" envDefault:"student:"`
	SlotTTL         time.Duration `env:"SESSION_SLOT_TTL" envDefault:"24h"`
	Channel         string        `env:"SESSION_CHANNEL" envDefault:"portal:session"`
	BroadcastBuffer int           `env:"SESSION_BROADCAST_BUFFER" envDefault:"64"`
}

const (
	SlotMemory = "memory"
	SlotRedis  = "redis"

	DefaultKeyPrefix = "student:"
)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix sets the prefix of slot keys.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMarshaler replaces the JSON encoder used by Save.
func WithMarshaler(fn func(any) ([]byte, error)) Option {
	return func(s *Store) {
		if fn != nil {
			s.marshal = fn
		}
	}
}
