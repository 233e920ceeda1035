package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the workflow engine.
type Metrics struct {
	Decisions           *prometheus.CounterVec
	SubProcessFailures  *prometheus.CounterVec
	ReconciliationItems *prometheus.CounterVec
}

// New creates and registers all workflow metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coppice_decisions_total",
			Help: "Workflow decision operations by action and outcome",
		}, []string{"action", "outcome"}),
		SubProcessFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coppice_subprocess_failures_total",
			Help: "Classified post-commit sub-process failures",
		}, []string{"outcome"}),
		ReconciliationItems: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coppice_reconciliation_items_total",
			Help: "Batch reconciliation items by job and result",
		}, []string{"job", "result"}),
	}
}

func (m *Metrics) CountDecision(action, outcome string) {
	m.Decisions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) CountSubProcessFailure(outcome string) {
	m.SubProcessFailures.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CountReconciliationItem(job, result string) {
	m.ReconciliationItems.WithLabelValues(job, result).Inc()
}
