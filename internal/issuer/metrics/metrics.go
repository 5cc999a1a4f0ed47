package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the issuer module: lifecycle counters,
// the live issuer gauge, and per-operation durations.
type Metrics struct {
	Authorized    prometheus.Counter
	Deauthorized  prometheus.Counter
	Transferred   prometheus.Counter
	Mints         prometheus.Counter
	Burns         prometheus.Counter
	GuardRejected *prometheus.CounterVec
	ActiveIssuers prometheus.Gauge
	SweepRemovals prometheus.Histogram
	OpDuration    *prometheus.HistogramVec
}

// New creates a Metrics instance with all issuer module metrics registered.
func New() *Metrics {
	return &Metrics{
		Authorized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pdtoken_issuers_authorized_total",
			Help: "Total number of issuer authorizations",
		}),
		Deauthorized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pdtoken_issuers_deauthorized_total",
			Help: "Total number of issuer deauthorizations (voluntary, forced, and swept)",
		}),
		Transferred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pdtoken_issuer_transfers_total",
			Help: "Total number of issuer authorization transfers",
		}),
		Mints: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pdtoken_mints_total",
			Help: "Total number of successful mint operations",
		}),
		Burns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pdtoken_burns_total",
			Help: "Total number of successful burn operations",
		}),
		GuardRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pdtoken_guard_rejections_total",
			Help: "Operations rejected by a guard, by error code",
		}, []string{"code"}),
		ActiveIssuers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pdtoken_active_issuers",
			Help: "Current number of authorized issuers",
		}),
		SweepRemovals: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdtoken_sweep_removals",
			Help:    "Issuers removed per expiry sweep",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pdtoken_operation_duration_seconds",
			Help:    "Duration of issuer operations, by operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"op"}),
	}
}

// ObserveOp records the duration of a named operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOp(op string, start time.Time) {
	m.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RejectGuard records a guard rejection by code.
func (m *Metrics) RejectGuard(code string) {
	m.GuardRejected.WithLabelValues(code).Inc()
}
