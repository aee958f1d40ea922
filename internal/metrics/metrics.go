// Package metrics exposes prometheus counters for the authorization
// core. Labels never carry tenant or actor identifiers, only coarse
// classes, so cardinality stays bounded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuthzDecisions   *prometheus.CounterVec
	QuotaRejections  *prometheus.CounterVec
	GuardRejections  *prometheus.CounterVec
	RequestsInFlight prometheus.Gauge
}

// New registers the metric set on the given registerer. Pass
// prometheus.DefaultRegisterer in main; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AuthzDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "komunta_authz_decisions_total",
			Help: "Authorization decisions by resource, action and outcome",
		}, []string{"resource", "action", "outcome"}),
		QuotaRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "komunta_quota_rejections_total",
			Help: "Writes rejected by the subscription gate, by reason",
		}, []string{"reason"}),
		GuardRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "komunta_invoice_guard_rejections_total",
			Help: "Writes rejected by the invoice immutability guard, by operation",
		}, []string{"operation"}),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "komunta_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
	}
}

// Decision records one policy evaluation outcome.
func (m *Metrics) Decision(resource, action string, allowed bool) {
	outcome := "allow"
	if !allowed {
		outcome = "deny"
	}
	m.AuthzDecisions.WithLabelValues(resource, action, outcome).Inc()
}

// QuotaRejected records a gate denial.
func (m *Metrics) QuotaRejected(reason string) {
	m.QuotaRejections.WithLabelValues(reason).Inc()
}

// GuardRejected records an invoice write blocked by the immutability
// guard.
func (m *Metrics) GuardRejected(operation string) {
	m.GuardRejections.WithLabelValues(operation).Inc()
}
