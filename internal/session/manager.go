// Package session owns the lifecycle of conversation sessions: lazy creation,
// per-session mutual exclusion around load/advance/save, direct (non
// conversational) updates and habit tracking.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/NimaCare/internal/catalog"
	"github.com/BTreeMap/NimaCare/internal/flow"
	"github.com/BTreeMap/NimaCare/internal/metrics"
	"github.com/BTreeMap/NimaCare/internal/models"
	"github.com/BTreeMap/NimaCare/internal/store"
	"github.com/BTreeMap/NimaCare/internal/util"
)

// ErrWorkflowComplete is returned when a message arrives for a finished session.
var ErrWorkflowComplete = errors.New("workflow already complete")

// Advancer runs one workflow step; *flow.Coordinator implements it.
type Advancer interface {
	Advance(ctx context.Context, state *models.ConversationState) (*models.ConversationState, error)
}

// Result is the outbound contract for one processed message.
type Result struct {
	SessionID        string           `json:"session_id"`
	Reply            string           `json:"reply"`
	Messages         []models.Message `json:"messages"`
	ActiveStage      models.Stage     `json:"active_stage"`
	WorkflowComplete bool             `json:"workflow_complete"`
}

// Summary is the display view of a session.
type Summary struct {
	SessionID         string             `json:"session_id"`
	UserID            string             `json:"user_id"`
	CurrentStage      models.Stage       `json:"current_agent"`
	MessageCount      int                `json:"message_count"`
	WorkflowComplete  bool               `json:"workflow_complete"`
	CrisisLevel       models.CrisisLevel `json:"crisis_level"`
	SuggestedCategory models.Category    `json:"suggested_category,omitempty"`
	SelectedCategory  models.Category    `json:"selected_category,omitempty"`
	PrivacyTier       models.PrivacyTier `json:"privacy_tier,omitempty"`
	TherapistMatched  bool               `json:"therapist_matched"`
	AppointmentBooked bool               `json:"appointment_booked"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Opts holds Manager configuration.
type Opts struct {
	Metrics *metrics.Metrics
	Clock   func() time.Time
	Roster  Roster
}

// Option configures a Manager.
type Option func(*Opts)

// WithMetrics reports the active session gauge on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Opts) { o.Metrics = m }
}

// WithRoster sets the counselor and group roster used for booking.
// Defaults to the built-in catalog.
func WithRoster(r Roster) Option {
	return func(o *Opts) { o.Roster = r }
}

// WithClock overrides the time source used for habit tracking and booking.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

// Manager serializes work per session and persists state after every change.
// Different sessions proceed independently.
type Manager struct {
	store    store.Store
	advancer Advancer
	metrics  *metrics.Metrics
	roster   Roster
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a Manager over st that advances sessions with adv.
func NewManager(st store.Store, adv Advancer, opts ...Option) *Manager {
	cfg := Opts{Clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Roster == nil {
		cfg.Roster = catalog.Default()
	}
	return &Manager{
		store:    st,
		advancer: adv,
		metrics:  cfg.Metrics,
		roster:   cfg.Roster,
		now:      cfg.Clock,
		locks:    make(map[string]*sessionLock),
	}
}

// lock acquires the mutex for sessionID and returns its release function.
// Entries are dropped once no goroutine holds or waits on them.
func (m *Manager) lock(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}

// HandleMessage appends text to the session, advances the workflow once and
// saves the result. An empty sessionID starts a new session. A completed
// session returns its closing result together with ErrWorkflowComplete.
func (m *Manager) HandleMessage(ctx context.Context, sessionID, userID, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyMessage
	}
	if len(text) > models.MaxMessageLength {
		return nil, models.ErrMessageTooLong
	}
	if sessionID == "" {
		sessionID = util.GenerateSessionID()
		slog.Debug("SessionManager.HandleMessage: generated session id", "sessionID", sessionID, "userID", userID)
	}

	unlock := m.lock(sessionID)
	defer unlock()

	state, created, err := m.loadOrCreate(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if state.Facts.WorkflowComplete {
		slog.Info("SessionManager.HandleMessage: message for completed session", "sessionID", sessionID)
		res := newResult(sessionID, state)
		res.Reply = state.Facts.ClosingMessage
		return res, ErrWorkflowComplete
	}

	state.AddMessage(models.RoleUser, text)
	if _, err := m.advancer.Advance(ctx, state); err != nil {
		slog.Error("SessionManager.HandleMessage: advance failed", "sessionID", sessionID, "error", err)
		return nil, fmt.Errorf("failed to advance session %s: %w", sessionID, err)
	}

	if err := m.store.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	if created {
		m.refreshActiveSessions(ctx)
	}

	slog.Debug("SessionManager.HandleMessage: processed", "sessionID", sessionID, "stage", state.ActiveStage, "complete", state.Facts.WorkflowComplete)
	return newResult(sessionID, state), nil
}

func (m *Manager) loadOrCreate(ctx context.Context, sessionID, userID string) (*models.ConversationState, bool, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err == nil {
		return state, false, nil
	}
	if !errors.Is(err, store.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	state = models.NewConversationState(userID)
	err = m.store.Create(ctx, sessionID, state)
	if errors.Is(err, store.ErrSessionExists) {
		// Another instance sharing the store created it first; continue theirs.
		slog.Warn("SessionManager: session created concurrently, reloading", "sessionID", sessionID)
		existing, getErr := m.store.Get(ctx, sessionID)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}
	slog.Info("SessionManager: session created", "sessionID", sessionID, "userID", userID)
	return state, true, nil
}

func newResult(sessionID string, state *models.ConversationState) *Result {
	res := &Result{
		SessionID:        sessionID,
		Messages:         state.Messages,
		ActiveStage:      state.ActiveStage,
		WorkflowComplete: state.Facts.WorkflowComplete,
	}
	if last := state.LastAssistantMessages(1); len(last) > 0 {
		res.Reply = last[0]
	}
	return res
}

// GetSession returns the stored state for sessionID. Reading a session
// counts as activity and resets its idle timer.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*models.ConversationState, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	m.touch(ctx, sessionID)
	return state, nil
}

func (m *Manager) touch(ctx context.Context, sessionID string) {
	if err := m.store.Touch(ctx, sessionID); err != nil {
		slog.Warn("SessionManager: failed to refresh idle timer", "sessionID", sessionID, "error", err)
	}
}

// Summary returns the display view of a session.
func (m *Manager) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	state, err := m.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sum := &Summary{
		SessionID:         sessionID,
		UserID:            state.UserID,
		CurrentStage:      flow.NextStage(state),
		MessageCount:      len(state.Messages),
		WorkflowComplete:  state.Facts.WorkflowComplete,
		CrisisLevel:       state.CrisisLevel(),
		SuggestedCategory: state.SuggestedCategory(),
		SelectedCategory:  state.Facts.SelectedCategory,
		TherapistMatched:  state.Flag("therapist_match_found"),
		AppointmentBooked: state.Flag("appointment_booked"),
		CreatedAt:         state.CreatedAt,
		UpdatedAt:         state.UpdatedAt,
	}
	if sel := state.Facts.Privacy.Selection; sel != nil {
		sum.PrivacyTier = sel.Tier
	}
	return sum, nil
}

// DeleteSession removes a session.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	unlock := m.lock(sessionID)
	defer unlock()
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("SessionManager.DeleteSession: session deleted", "sessionID", sessionID)
	m.refreshActiveSessions(ctx)
	return nil
}

// Contributions summarizes the completed stages of a session.
func (m *Manager) Contributions(ctx context.Context, sessionID string) ([]flow.Contribution, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return flow.Contributions(state), nil
}

// SetPrivacyTier records a tier chosen outside the conversation and completes
// the privacy stage. Invalid tiers return an error naming the allowed values.
func (m *Manager) SetPrivacyTier(ctx context.Context, sessionID, tier string) (*models.ConversationState, error) {
	parsed, err := models.ValidatePrivacyTier(tier)
	if err != nil {
		return nil, err
	}
	return m.update(ctx, sessionID, func(state *models.ConversationState) error {
		flow.ApplyPrivacySelection(state, parsed)
		slog.Info("SessionManager.SetPrivacyTier: tier set", "sessionID", sessionID, "tier", parsed)
		return nil
	})
}

// SetCategory records an explicit category override. It takes precedence over
// the crisis stage's suggestion for every later stage.
func (m *Manager) SetCategory(ctx context.Context, sessionID, category string) (*models.ConversationState, error) {
	parsed, err := models.ValidateCategory(category)
	if err != nil {
		return nil, err
	}
	return m.update(ctx, sessionID, func(state *models.ConversationState) error {
		state.Facts.SelectedCategory = parsed
		slog.Info("SessionManager.SetCategory: category set", "sessionID", sessionID, "category", parsed)
		return nil
	})
}

// update applies fn to an existing session under its lock and saves the
// result. Nothing is saved when fn fails.
func (m *Manager) update(ctx context.Context, sessionID string, fn func(*models.ConversationState) error) (*models.ConversationState, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	state.UpdatedAt = m.now()
	if err := m.store.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return state, nil
}

func (m *Manager) refreshActiveSessions(ctx context.Context) {
	if m.metrics == nil {
		return
	}
	n, err := m.store.Count(ctx)
	if err != nil {
		slog.Warn("SessionManager: failed to count sessions", "error", err)
		return
	}
	m.metrics.SetActiveSessions(n)
}
