package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
)

func TestWorkflowMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWorkflowMetrics(reg)

	metrics.ObserveTransition("quotation", "claim", nil)
	metrics.ObserveTransition("quotation", "claim", nil)
	metrics.ObserveTransition("quotation", "claim", pkgerrors.New(pkgerrors.CodeConflict, "already claimed"))
	metrics.ObserveTransition("quotation", "quote", errors.New("boom"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "workflow_transitions_total")
	if mf == nil {
		t.Fatal("workflow_transitions_total not exported")
	}

	want := map[string]float64{
		"claim/ok":             2,
		"claim/CONFLICT":       1,
		"quote/INTERNAL_ERROR": 1,
	}
	got := map[string]float64{}
	for _, metric := range mf.GetMetric() {
		got[labelValue(metric, "action")+"/"+labelValue(metric, "outcome")] = metric.GetCounter().GetValue()
	}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("expected %s=%v, got %v", key, value, got[key])
		}
	}
}

func TestWorkflowMetricsBacklogGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWorkflowMetrics(reg)
	metrics.SetBacklog("registration_pendency", map[string]int64{"pending": 4, "answered": 1})
	metrics.SetBacklog("registration_pendency", map[string]int64{"pending": 2})

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "workflow_backlog")
	if mf == nil {
		t.Fatal("workflow_backlog not exported")
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), "status", "pending") && metric.GetGauge().GetValue() != 2 {
			t.Fatalf("expected pending=2, got %v", metric.GetGauge().GetValue())
		}
	}
}

func TestNilWorkflowMetricsAreSafe(t *testing.T) {
	var metrics *WorkflowMetrics
	metrics.ObserveTransition("quotation", "claim", nil)
	metrics.SetBacklog("quotation", map[string]int64{"new": 1})
	NewWorkflowMetrics(nil).ObserveTransition("quotation", "claim", nil)
}

func labelValue(metric *dto.Metric, name string) string {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name {
			return label.GetValue()
		}
	}
	return ""
}
