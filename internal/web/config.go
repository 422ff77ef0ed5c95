package web

import "time"

// Config holds the HTTP layer settings.
type Config struct {
	Development  bool          `env:"APP_DEVELOPMENT" envDefault:"false"`
	TrustProxy   bool          `env:"HTTP_TRUST_PROXY" envDefault:"false"`
	MaxBodyBytes int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"65536"`
	StaticMaxAge time.Duration `env:"HTTP_STATIC_MAX_AGE" envDefault:"1h"`
	ReadyTimeout time.Duration `env:"HTTP_READY_TIMEOUT" envDefault:"2s"`

	// Sync socket keepalive.
	PingInterval time.Duration `env:"SYNC_PING_INTERVAL" envDefault:"30s"`
	WriteTimeout time.Duration `env:"SYNC_WRITE_TIMEOUT" envDefault:"10s"`
}

func (c Config) withDefaults() Config {
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 64 << 10
	}
	if c.ReadyTimeout <= 0 {
		c.ReadyTimeout = 2 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}
