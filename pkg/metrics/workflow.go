package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
)

// WorkflowMetrics counts workflow operations and exposes open backlog sizes.
type WorkflowMetrics struct {
	transitions *prometheus.CounterVec
	backlog     *prometheus.GaugeVec
}

// NewWorkflowMetrics registers the workflow metrics on reg. A nil registerer
// yields a recorder that drops everything.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Workflow operations by aggregate, action and outcome.",
	}, []string{"aggregate", "action", "outcome"})
	backlog := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "workflow_backlog",
		Help: "Current number of records per aggregate and status.",
	}, []string{"aggregate", "status"})
	reg.MustRegister(transitions, backlog)
	return &WorkflowMetrics{transitions: transitions, backlog: backlog}
}

// ObserveTransition counts one operation. The outcome label is "ok" or the
// error code.
func (w *WorkflowMetrics) ObserveTransition(aggregate, action string, err error) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(aggregate), normalizeLabel(action), outcome(err)).Inc()
}

// SetBacklog replaces the gauge values for aggregate with counts.
func (w *WorkflowMetrics) SetBacklog(aggregate string, counts map[string]int64) {
	if w == nil || w.backlog == nil {
		return
	}
	for status, count := range counts {
		w.backlog.WithLabelValues(normalizeLabel(aggregate), normalizeLabel(status)).Set(float64(count))
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(pkgerrors.CodeOf(err))
}
