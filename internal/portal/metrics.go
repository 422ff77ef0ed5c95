package portal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login results.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultMissing = "missing_fields"
	ResultError   = "error"
)

// Logout reasons.
const (
	ReasonUser = "user"
	ReasonIdle = "idle"
)

// Metrics holds the portal collectors. A nil *Metrics records nothing.
type Metrics struct {
	logins   *prometheus.CounterVec
	logouts  *prometheus.CounterVec
	monitors prometheus.Gauge
	relayed  *prometheus.CounterVec
}

// NewMetrics registers the portal collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		logouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "logouts_total",
			Help:      "Ended sessions by reason.",
		}, []string{"reason"}),
		monitors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "portal",
			Name:      "idle_monitors",
			Help:      "Clients with an armed idle monitor.",
		}),
		relayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "relayed_changes_total",
			Help:      "Session changes from other instances applied to local idle monitors.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) logout(reason string) {
	if m != nil {
		m.logouts.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) relay(kind string) {
	if m != nil {
		m.relayed.WithLabelValues(kind).Inc()
	}
}

// ObserveMonitors is an idle.WithObserver callback.
func (m *Metrics) ObserveMonitors(active int) {
	if m != nil {
		m.monitors.Set(float64(active))
	}
}

// Logins exposes the login counter.
func (m *Metrics) Logins() *prometheus.CounterVec { return m.logins }

// Logouts exposes the logout counter.
func (m *Metrics) Logouts() *prometheus.CounterVec { return m.logouts }

// Monitors exposes the armed-monitor gauge.
func (m *Metrics) Monitors() prometheus.Gauge { return m.monitors }

// Relayed exposes the counter of changes received from other instances.
func (m *Metrics) Relayed() *prometheus.CounterVec { return m.relayed }
