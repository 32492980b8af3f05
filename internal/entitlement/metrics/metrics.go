package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the entitlement module.
type Metrics struct {
	// Grants and revocations by feature and outcome
	Writes *prometheus.CounterVec

	// Admin calls rejected for lack of staff privilege, by operation
	Forbidden *prometheus.CounterVec

	// Quota resolutions split by whether the default tier was substituted
	QuotaResolutions *prometheus.CounterVec

	// Early-access membership checks by result
	EarlyAccessChecks *prometheus.CounterVec

	// Overall service operation latency
	OperationLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all entitlement module metrics registered.
func New() *Metrics {
	return &Metrics{
		Writes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "entgate_entitlement_writes_total",
			Help: "Total grant and revoke operations by feature and outcome",
		}, []string{"op", "feature", "outcome"}), // op: "grant", "revoke"

		Forbidden: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "entgate_entitlement_forbidden_total",
			Help: "Total admin operations rejected for non-staff callers",
		}, []string{"op"}),

		QuotaResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "entgate_quota_resolutions_total",
			Help: "Total quota resolutions by source of the served tier",
		}, []string{"source"}), // source: "grant", "default"

		EarlyAccessChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "entgate_early_access_checks_total",
			Help: "Total early-access membership checks by result",
		}, []string{"result"}),

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entgate_entitlement_operation_duration_seconds",
			Help:    "Duration of entitlement service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
	}
}

// IncrementWrite records a grant or revoke outcome.
func (m *Metrics) IncrementWrite(op, feature, outcome string) {
	if m != nil {
		m.Writes.WithLabelValues(op, feature, outcome).Inc()
	}
}

// IncrementForbidden records a staff-gate rejection.
func (m *Metrics) IncrementForbidden(op string) {
	if m != nil {
		m.Forbidden.WithLabelValues(op).Inc()
	}
}

// IncrementQuotaResolution records where a served quota tier came from.
func (m *Metrics) IncrementQuotaResolution(defaulted bool) {
	if m != nil {
		source := "grant"
		if defaulted {
			source = "default"
		}
		m.QuotaResolutions.WithLabelValues(source).Inc()
	}
}

// IncrementEarlyAccessCheck records a membership check result.
func (m *Metrics) IncrementEarlyAccessCheck(allowed bool) {
	if m != nil {
		result := "denied"
		if allowed {
			result = "allowed"
		}
		m.EarlyAccessChecks.WithLabelValues(result).Inc()
	}
}

// ObserveOperationLatency records the duration of one service operation.
func (m *Metrics) ObserveOperationLatency(op string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(op).Observe(d.Seconds())
	}
}
