package idle

import (
	"sync"
	"time"
)

// State is the lifecycle state of a Monitor.
type State int

const (
	Inactive State = iota
	Armed
	Renewed
	Expired
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Armed:
		return "armed"
	case Renewed:
		return "renewed"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// Monitor tracks inactivity for one session.
type Monitor struct {
	mu       sync.Mutex
	timeout  time.Duration
	sched    Scheduler
	onExpire func()

	state   State
	gen     uint64
	pending Handle
}

// NewMonitor creates an inactive monitor. onExpire runs once per expiry,
// outside the monitor lock, while State reports Expired.
func NewMonitor(timeout time.Duration, sched Scheduler, onExpire func()) *Monitor {
	if sched == nil {
		sched = NewClockScheduler(nil)
	}
	if onExpire == nil {
		onExpire = func() {}
	}
	return &Monitor{
		timeout:  timeout,
		sched:    sched,
		onExpire: onExpire,
	}
}

// Arm starts the countdown. Arming a running monitor does nothing and
// returns false.
func (m *Monitor) Arm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Inactive {
		return false
	}
	m.state = Armed
	m.scheduleLocked()
	return true
}

// Signal restarts the countdown from now. It returns false unless the
// monitor is armed. Every signal kind has the same effect.
func (m *Monitor) Signal(Signal) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Armed && m.state != Renewed {
		return false
	}
	m.cancelLocked()
	m.state = Renewed
	m.scheduleLocked()
	return true
}

// Disarm cancels the pending deadline and returns the monitor to Inactive.
// It returns false when the monitor was already inactive.
func (m *Monitor) Disarm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Inactive {
		return false
	}
	m.cancelLocked()
	m.state = Inactive
	return true
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active reports whether a deadline is pending.
func (m *Monitor) Active() bool {
	s := m.State()
	return s == Armed || s == Renewed
}

func (m *Monitor) scheduleLocked() {
	m.gen++
	gen := m.gen
	m.pending = m.sched.Schedule(m.timeout, func() { m.fire(gen) })
}

// cancelLocked also bumps the generation, so a timer that already started
// running before Cancel is ignored when it takes the lock.
func (m *Monitor) cancelLocked() {
	if m.pending != nil {
		m.pending.Cancel()
		m.pending = nil
	}
	m.gen++
}

func (m *Monitor) fire(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || (m.state != Armed && m.state != Renewed) {
		m.mu.Unlock()
		return
	}
	m.state = Expired
	m.pending = nil
	m.mu.Unlock()

	m.onExpire()

	m.mu.Lock()
	if m.state == Expired {
		m.state = Inactive
	}
	m.mu.Unlock()
}
