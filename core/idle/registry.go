package idle

import (
	"sync"
	"time"
)

// Registry holds one monitor per client.
type Registry struct {
	mu       sync.Mutex
	monitors map[string]*Monitor
	timeout  time.Duration
	sched    Scheduler
	observe  func(active int)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithObserver is called with the number of armed monitors after every
// change. The portal feeds it into a gauge.
func WithObserver(fn func(active int)) RegistryOption {
	return func(r *Registry) {
		if fn != nil {
			r.observe = fn
		}
	}
}

func NewRegistry(timeout time.Duration, sched Scheduler, opts ...RegistryOption) *Registry {
	if sched == nil {
		sched = NewClockScheduler(nil)
	}
	r := &Registry{
		monitors: make(map[string]*Monitor),
		timeout:  timeout,
		sched:    sched,
		observe:  func(int) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Arm starts a monitor for client. It returns false when one is already
// running; the running monitor and its deadline are left untouched.
func (r *Registry) Arm(client string, onExpire func()) bool {
	r.mu.Lock()
	if m, ok := r.monitors[client]; ok && m.Active() {
		r.mu.Unlock()
		return false
	}

	var m *Monitor
	m = NewMonitor(r.timeout, r.sched, func() {
		r.release(client, m)
		if onExpire != nil {
			onExpire()
		}
	})
	r.monitors[client] = m
	m.Arm()
	n := len(r.monitors)
	r.mu.Unlock()

	r.observe(n)
	return true
}

// Signal renews the client's deadline. It returns false when no monitor is
// armed for the client.
func (r *Registry) Signal(client string, s Signal) bool {
	r.mu.Lock()
	m, ok := r.monitors[client]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return m.Signal(s)
}

// Disarm stops the client's monitor and forgets it.
func (r *Registry) Disarm(client string) bool {
	r.mu.Lock()
	m, ok := r.monitors[client]
	if ok {
		delete(r.monitors, client)
	}
	n := len(r.monitors)
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.observe(n)
	return m.Disarm()
}

// Active reports whether the client has an armed monitor.
func (r *Registry) Active(client string) bool {
	r.mu.Lock()
	m, ok := r.monitors[client]
	r.mu.Unlock()
	return ok && m.Active()
}

// Len returns the number of tracked monitors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.monitors)
}

// Close disarms every monitor without calling expiry callbacks.
func (r *Registry) Close() {
	r.mu.Lock()
	monitors := r.monitors
	r.monitors = make(map[string]*Monitor)
	r.mu.Unlock()

	for _, m := range monitors {
		m.Disarm()
	}
	r.observe(0)
}

// release forgets m if it is still the client's current monitor.
func (r *Registry) release(client string, m *Monitor) {
	r.mu.Lock()
	if r.monitors[client] == m {
		delete(r.monitors, client)
	}
	n := len(r.monitors)
	r.mu.Unlock()
	r.observe(n)
}
