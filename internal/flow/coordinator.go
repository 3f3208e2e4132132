package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/NimaCare/internal/catalog"
	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/keywords"
	"github.com/BTreeMap/NimaCare/internal/metrics"
	"github.com/BTreeMap/NimaCare/internal/models"
	"github.com/BTreeMap/NimaCare/internal/util"
)

// Coordinator is the workflow engine. It holds no per-session state and is
// safe for concurrent use across sessions; callers serialize calls per session.
type Coordinator struct {
	detector  Detector
	catalog   Catalog
	metrics   *metrics.Metrics
	signupRef func() string
	stages    map[models.Stage]StageHandler
	responder *responder
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDetector replaces the keyword detector.
func WithDetector(d Detector) Option {
	return func(c *Coordinator) { c.detector = d }
}

// WithCatalog replaces the built-in catalog.
func WithCatalog(cat Catalog) Option {
	return func(c *Coordinator) { c.catalog = cat }
}

// WithMetrics records stage activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithSignupRefFunc overrides support group reference generation.
func WithSignupRefFunc(fn func() string) Option {
	return func(c *Coordinator) { c.signupRef = fn }
}

// NewCoordinator builds the engine. gen may be nil, in which case every
// generation falls back to canned responses.
func NewCoordinator(gen genai.ClientInterface, opts ...Option) *Coordinator {
	c := &Coordinator{
		detector:  keywords.New(),
		catalog:   catalog.Default(),
		signupRef: util.GenerateSignupRef,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.responder = &responder{gen: gen, detector: c.detector, metrics: c.metrics}
	c.stages = map[models.Stage]StageHandler{
		models.StageIntake:     &intakeStage{responder: c.responder, detector: c.detector},
		models.StagePrivacy:    &privacyStage{detector: c.detector},
		models.StageCrisis:     &crisisStage{responder: c.responder, detector: c.detector, metrics: c.metrics},
		models.StageResource:   &resourceStage{responder: c.responder, detector: c.detector, catalog: c.catalog},
		models.StageScheduling: &schedulingStage{detector: c.detector, catalog: c.catalog, signupRef: c.signupRef},
		models.StageHabit:      &habitStage{catalog: c.catalog},
	}
	return c
}

// NextStage returns the first stage, in fixed order, whose completion flag is
// false, or StageComplete when every flag is set.
func NextStage(state *models.ConversationState) models.Stage {
	for _, stage := range models.StageOrder {
		if !state.IsComplete(stage) {
			return stage
		}
	}
	return models.StageComplete
}

// Advance runs exactly one stage for the latest user message, which the caller
// has already appended. Once the workflow is complete, Advance is a no-op.
func (c *Coordinator) Advance(ctx context.Context, state *models.ConversationState) (*models.ConversationState, error) {
	if state.Facts.WorkflowComplete {
		slog.Debug("Coordinator.Advance: workflow already complete, nothing to do", "userID", state.UserID)
		return state, nil
	}

	stage := NextStage(state)
	state.ActiveStage = stage

	if stage == models.StageComplete {
		c.finish(state)
		return state, nil
	}

	handler, ok := c.stages[stage]
	if !ok {
		return state, fmt.Errorf("no handler registered for stage %q", stage)
	}

	slog.Debug("Coordinator.Advance: routing", "userID", state.UserID, "stage", stage, "turn", state.UserTurnCount())
	c.metrics.ObserveStageRun(string(stage))

	if err := handler.Process(ctx, state); err != nil {
		return state, fmt.Errorf("%s stage failed: %w", stage, err)
	}

	if state.IsComplete(stage) {
		slog.Info("Coordinator.Advance: stage complete", "userID", state.UserID, "stage", stage)
		c.metrics.ObserveStageCompletion(string(stage))
	}
	return state, nil
}

// finish appends the closing message and marks the workflow complete.
func (c *Coordinator) finish(state *models.ConversationState) {
	closing := ClosingMessage(state)
	state.AddMessage(models.RoleAssistant, closing)
	state.Facts.ClosingMessage = closing
	state.Facts.WorkflowComplete = true
	c.metrics.ObserveWorkflowComplete()
	slog.Info("Coordinator.Advance: workflow complete", "userID", state.UserID,
		"category", state.ResolvedCategory(), "crisisLevel", state.CrisisLevel())
}
