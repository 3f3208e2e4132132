// Package metrics defines the Prometheus collectors for the intake workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Generation failure kinds.
const (
	FailureError    = "error"
	FailureFiltered = "content_filter"
)

// Metrics holds Prometheus metrics for workflow observability.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	StageRuns           *prometheus.CounterVec // stage invocations, by stage
	StageCompletions    *prometheus.CounterVec // completion flags set, by stage
	GenerationFailures  *prometheus.CounterVec // fallback substitutions, by stage and kind
	CrisisLevels        *prometheus.CounterVec // crisis assessments, by level
	WorkflowCompletions prometheus.Counter     // sessions that reached the closing message
	ActiveSessions      prometheus.Gauge       // sessions currently held by the store
}

// NewMetrics creates and registers the workflow collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	stageRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nimacare",
		Name:      "stage_runs_total",
		Help:      "Total number of stage handler invocations",
	}, []string{"stage"})

	stageCompletions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nimacare",
		Name:      "stage_completions_total",
		Help:      "Total number of stages marked complete",
	}, []string{"stage"})

	generationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nimacare",
		Name:      "generation_failures_total",
		Help:      "Total number of generation calls replaced by a fallback response",
	}, []string{"stage", "kind"})

	crisisLevels := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nimacare",
		Name:      "crisis_assessments_total",
		Help:      "Total number of crisis assessments by level",
	}, []string{"level"})

	workflowCompletions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nimacare",
		Name:      "workflow_completions_total",
		Help:      "Total number of sessions that completed every stage",
	})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nimacare",
		Name:      "active_sessions",
		Help:      "Current number of stored sessions",
	})

	reg.MustRegister(stageRuns, stageCompletions, generationFailures, crisisLevels, workflowCompletions, activeSessions)

	return &Metrics{
		StageRuns:           stageRuns,
		StageCompletions:    stageCompletions,
		GenerationFailures:  generationFailures,
		CrisisLevels:        crisisLevels,
		WorkflowCompletions: workflowCompletions,
		ActiveSessions:      activeSessions,
	}
}

// ObserveStageRun counts one invocation of stage.
func (m *Metrics) ObserveStageRun(stage string) {
	if m == nil {
		return
	}
	m.StageRuns.WithLabelValues(stage).Inc()
}

// ObserveStageCompletion counts one stage completion.
func (m *Metrics) ObserveStageCompletion(stage string) {
	if m == nil {
		return
	}
	m.StageCompletions.WithLabelValues(stage).Inc()
}

// ObserveGenerationFailure counts one fallback substitution.
func (m *Metrics) ObserveGenerationFailure(stage, kind string) {
	if m == nil {
		return
	}
	m.GenerationFailures.WithLabelValues(stage, kind).Inc()
}

// ObserveCrisisLevel counts one crisis assessment.
func (m *Metrics) ObserveCrisisLevel(level string) {
	if m == nil {
		return
	}
	m.CrisisLevels.WithLabelValues(level).Inc()
}

// ObserveWorkflowComplete counts one finished session.
func (m *Metrics) ObserveWorkflowComplete() {
	if m == nil {
		return
	}
	m.WorkflowCompletions.Inc()
}

// SetActiveSessions records the current store size.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
