package idle

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler runs a function once after a delay.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Handle
}

// Handle is a scheduled call.
type Handle interface {
	// Cancel prevents the call. It reports false when the call already ran
	// or was cancelled.
	Cancel() bool
}

type clockScheduler struct {
	clock clockwork.Clock
}

// NewClockScheduler schedules on c. A nil clock means the real clock.
func NewClockScheduler(c clockwork.Clock) Scheduler {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return clockScheduler{clock: c}
}

func (s clockScheduler) Schedule(d time.Duration, fn func()) Handle {
	return timerHandle{timer: s.clock.AfterFunc(d, fn)}
}

type timerHandle struct {
	timer clockwork.Timer
}

func (h timerHandle) Cancel() bool {
	return h.timer.Stop()
}
