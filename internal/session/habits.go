package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// ErrHabitNotFound is returned for habits that were never recommended to the session.
var ErrHabitNotFound = errors.New("habit not found")

// Milestones are the streak lengths worth celebrating.
var Milestones = []int{7, 14, 30, 60, 90, 180, 365}

// DefaultHistoryLimit is how many history entries HabitHistory returns by default.
const DefaultHistoryLimit = 30

// HabitStatus pairs a recommended habit with its progress so far.
type HabitStatus struct {
	Habit    models.HabitRecord    `json:"habit"`
	Progress *models.HabitProgress `json:"progress,omitempty"`
}

// HabitCompletion is the outcome of one completion report.
type HabitCompletion struct {
	HabitID          string                `json:"habit_id"`
	Progress         *models.HabitProgress `json:"data"`
	MilestoneReached int                   `json:"milestone_reached,omitempty"`
	StreakMessage    string                `json:"streak_message,omitempty"`
}

// HabitStats summarizes one habit's progress.
type HabitStats struct {
	HabitID          string     `json:"habit_id"`
	TotalCompletions int        `json:"total_completions"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	CompletionRate   float64    `json:"completion_rate"`
	TotalDays        int        `json:"total_days"`
	LastCompleted    *time.Time `json:"last_completed,omitempty"`
}

// HabitHistory is a window of completion reports.
type HabitHistory struct {
	HabitID      string                   `json:"habit_id"`
	History      []models.HabitCheckEntry `json:"history"`
	TotalEntries int                      `json:"total_entries"`
}

// Habits lists the habits recommended to a session with their progress.
func (m *Manager) Habits(ctx context.Context, sessionID string) ([]HabitStatus, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := []HabitStatus{}
	if state.Facts.Habits == nil {
		return out, nil
	}
	for _, h := range state.Facts.Habits.Habits {
		out = append(out, HabitStatus{Habit: h, Progress: state.Facts.HabitProgress[h.ID]})
	}
	return out, nil
}

// CompleteHabit records a completion report. A completed report extends the
// streak; a missed one resets it.
func (m *Manager) CompleteHabit(ctx context.Context, req models.HabitCompletionRequest) (*HabitCompletion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var progress models.HabitProgress
	_, err := m.update(ctx, req.SessionID, func(state *models.ConversationState) error {
		if !isRecommended(state, req.HabitID) {
			return fmt.Errorf("%w: %s", ErrHabitNotFound, req.HabitID)
		}
		if state.Facts.HabitProgress == nil {
			state.Facts.HabitProgress = map[string]*models.HabitProgress{}
		}
		p, ok := state.Facts.HabitProgress[req.HabitID]
		if !ok {
			p = &models.HabitProgress{History: []models.HabitCheckEntry{}}
			state.Facts.HabitProgress[req.HabitID] = p
		}
		recordCompletion(p, req.Completed, req.Notes, m.now())
		progress = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &HabitCompletion{
		HabitID:          req.HabitID,
		Progress:         &progress,
		MilestoneReached: milestoneFor(progress.CurrentStreak),
	}
	if progress.CurrentStreak > 0 {
		res.StreakMessage = fmt.Sprintf("🔥 %d day streak!", progress.CurrentStreak)
	}
	return res, nil
}

// HabitStats reports statistics for every tracked habit of a session.
func (m *Manager) HabitStats(ctx context.Context, sessionID string) ([]HabitStats, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := []HabitStats{}
	for _, id := range state.Facts.Habits.HabitIDs() {
		if p, ok := state.Facts.HabitProgress[id]; ok {
			out = append(out, statsFor(id, p))
		}
	}
	return out, nil
}

// HabitHistory returns the most recent limit entries for one habit. A
// non-positive limit uses DefaultHistoryLimit.
func (m *Manager) HabitHistory(ctx context.Context, sessionID, habitID string, limit int) (*HabitHistory, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, ok := state.Facts.HabitProgress[habitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHabitNotFound, habitID)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	history := p.History
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return &HabitHistory{HabitID: habitID, History: history, TotalEntries: len(p.History)}, nil
}

func isRecommended(state *models.ConversationState, habitID string) bool {
	for _, id := range state.Facts.Habits.HabitIDs() {
		if id == habitID {
			return true
		}
	}
	return false
}

func recordCompletion(p *models.HabitProgress, completed bool, notes string, at time.Time) {
	if completed {
		p.TotalCompletions++
		p.CurrentStreak++
		ts := at
		p.LastCompleted = &ts
		if p.CurrentStreak > p.LongestStreak {
			p.LongestStreak = p.CurrentStreak
		}
	} else {
		p.CurrentStreak = 0
	}
	p.History = append(p.History, models.HabitCheckEntry{Date: at, Completed: completed, Notes: notes})
}

func milestoneFor(streak int) int {
	for _, m := range Milestones {
		if streak == m {
			return m
		}
	}
	return 0
}

func statsFor(habitID string, p *models.HabitProgress) HabitStats {
	total := len(p.History)
	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(p.TotalCompletions)/float64(total)*1000) / 10
	}
	return HabitStats{
		HabitID:          habitID,
		TotalCompletions: p.TotalCompletions,
		CurrentStreak:    p.CurrentStreak,
		LongestStreak:    p.LongestStreak,
		CompletionRate:   rate,
		TotalDays:        total,
		LastCompleted:    p.LastCompleted,
	}
}
