package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveStageRun("intake")
	m.ObserveStageRun("intake")
	m.ObserveStageCompletion("intake")
	m.ObserveGenerationFailure("crisis", FailureFiltered)
	m.ObserveCrisisLevel("low")
	m.ObserveWorkflowComplete()
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.StageRuns.WithLabelValues("intake")); got != 2 {
		t.Errorf("stage runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.StageCompletions.WithLabelValues("intake")); got != 1 {
		t.Errorf("stage completions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GenerationFailures.WithLabelValues("crisis", FailureFiltered)); got != 1 {
		t.Errorf("generation failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.WorkflowCompletions); got != 1 {
		t.Errorf("workflow completions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 3 {
		t.Errorf("active sessions = %v, want 3", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveStageRun("intake")
	m.ObserveStageCompletion("intake")
	m.ObserveGenerationFailure("intake", FailureError)
	m.ObserveCrisisLevel("none")
	m.ObserveWorkflowComplete()
	m.SetActiveSessions(1)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewMetrics(reg)
}
