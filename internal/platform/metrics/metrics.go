package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AuditEventsRecorded *prometheus.CounterVec
	AuditWriteFailures  prometheus.Counter
	LoginChecks         prometheus.Counter
	LoginChecksDenied   prometheus.Counter
	LoginCheckFailOpens prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AuditEventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "auditgate_audit_events_recorded_total",
			Help: "Total number of audit entries successfully persisted",
		}, []string{"event_type"}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auditgate_audit_write_failures_total",
			Help: "Total number of audit entries dropped because persistence failed",
		}),
		LoginChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auditgate_login_rate_limit_checks_total",
			Help: "Total number of login rate limit checks",
		}),
		LoginChecksDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auditgate_login_rate_limit_denied_total",
			Help: "Total number of login attempts denied by the rate limiter",
		}),
		LoginCheckFailOpens: promauto.NewCounter(prometheus.CounterOpts{
			Name: "auditgate_login_rate_limit_fail_open_total",
			Help: "Total number of rate limit checks that failed open on store errors",
		}),
	}
}

func (m *Metrics) IncrementAuditEventsRecorded(eventType string) {
	m.AuditEventsRecorded.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncrementAuditWriteFailures() {
	m.AuditWriteFailures.Inc()
}

func (m *Metrics) IncrementLoginChecks() {
	m.LoginChecks.Inc()
}

func (m *Metrics) IncrementLoginChecksDenied() {
	m.LoginChecksDenied.Inc()
}

func (m *Metrics) IncrementLoginCheckFailOpens() {
	m.LoginCheckFailOpens.Inc()
}
