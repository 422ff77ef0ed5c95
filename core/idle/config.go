package idle

import "time"

// DefaultTimeout is the inactivity period after which a session ends.
const DefaultTimeout = 15 * time.Minute

type Config struct {
	Timeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"15m"`
}
