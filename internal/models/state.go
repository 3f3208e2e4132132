package models

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chronological conversation entry.
type Message struct {
	Role      string    `json:"role"`    // "user" or "assistant"
	Content   string    `json:"content"` // message content
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ConversationState is the mutable aggregate owned by one session.
type ConversationState struct {
	UserID      string         `json:"user_id"`
	Messages    []Message      `json:"messages"`
	ActiveStage Stage          `json:"active_stage,omitempty"` // display only, never used for routing
	Facts       WorkflowFacts  `json:"facts"`
	Extra       map[string]any `json:"extra,omitempty"` // forward-compatible data for new stages
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewConversationState creates an empty state for userID.
func NewConversationState(userID string) *ConversationState {
	now := time.Now()
	return &ConversationState{
		UserID:    userID,
		Messages:  []Message{},
		Facts:     WorkflowFacts{Completed: map[Stage]bool{}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a message; messages are never reordered or removed.
func (s *ConversationState) AddMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: time.Now()})
	s.UpdatedAt = time.Now()
}

// LastUserMessage returns the most recent user message, or "".
func (s *ConversationState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantMessages returns up to n most recent assistant messages, newest first.
func (s *ConversationState) LastAssistantMessages(n int) []string {
	var out []string
	for i := len(s.Messages) - 1; i >= 0 && len(out) < n; i-- {
		if s.Messages[i].Role == RoleAssistant {
			out = append(out, s.Messages[i].Content)
		}
	}
	return out
}

// UserTurnCount counts user-authored messages.
func (s *ConversationState) UserTurnCount() int {
	count := 0
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			count++
		}
	}
	return count
}

// IsComplete reports whether a stage's completion flag is set. Missing flags read as false.
func (s *ConversationState) IsComplete(stage Stage) bool {
	return s.Facts.Completed[stage]
}

// MarkComplete sets a stage's completion flag. Flags are never cleared.
func (s *ConversationState) MarkComplete(stage Stage) {
	if s.Facts.Completed == nil {
		s.Facts.Completed = map[Stage]bool{}
	}
	s.Facts.Completed[stage] = true
}

// SuggestedCategory returns the crisis stage's inferred category, or "".
func (s *ConversationState) SuggestedCategory() Category {
	if s.Facts.Crisis == nil {
		return ""
	}
	return s.Facts.Crisis.Category
}

// CrisisLevel returns the assessed level; an unassessed state is CrisisLevelNone.
func (s *ConversationState) CrisisLevel() CrisisLevel {
	if s.Facts.Crisis == nil || s.Facts.Crisis.Level == "" {
		return CrisisLevelNone
	}
	return s.Facts.Crisis.Level
}

// ResolvedCategory applies selected > suggested > general.
func (s *ConversationState) ResolvedCategory() Category {
	if s.Facts.SelectedCategory != "" {
		return s.Facts.SelectedCategory
	}
	if c := s.SuggestedCategory(); c != "" {
		return c
	}
	return CategoryGeneral
}

// WorkflowFacts is the typed channel through which stages communicate.
type WorkflowFacts struct {
	Completed map[Stage]bool `json:"completed"`

	Intake  IntakeFacts  `json:"intake"`
	Privacy PrivacyFacts `json:"privacy"`

	Crisis                  *CrisisAssessment `json:"crisis,omitempty"`
	CrisisCategorySuggested bool              `json:"crisis_category_suggested,omitempty"`
	CrisisOverridePrompted  bool              `json:"crisis_override_prompted,omitempty"`
	NeedsEmergency          bool              `json:"needs_emergency,omitempty"`
	NeedsTherapist          bool              `json:"needs_therapist,omitempty"`

	// SelectedCategory is an explicit user choice; it wins over the crisis suggestion.
	SelectedCategory Category `json:"selected_category,omitempty"`

	Resource   *ResourceMatch  `json:"resource,omitempty"`
	Scheduling SchedulingFacts `json:"scheduling"`
	Habits     *HabitPlan      `json:"habits,omitempty"`

	HabitProgress map[string]*HabitProgress `json:"habit_progress,omitempty"`

	Appointments []Appointment `json:"appointments,omitempty"`
	GroupMatches []GroupMatch  `json:"group_matches,omitempty"`

	WorkflowComplete bool   `json:"workflow_complete,omitempty"`
	ClosingMessage   string `json:"closing_message,omitempty"`
}

// IntakeFacts holds intake stage bookkeeping.
type IntakeFacts struct {
	FallbackCount int  `json:"fallback_count,omitempty"`
	ForceCrisis   bool `json:"force_crisis,omitempty"`
}

// PrivacyFacts holds privacy stage bookkeeping.
type PrivacyFacts struct {
	Presented bool              `json:"presented,omitempty"`
	Selection *PrivacySelection `json:"selection,omitempty"`
}

// PrivacySelection records the chosen tier.
type PrivacySelection struct {
	Tier PrivacyTier `json:"tier"`
}

// CrisisAssessment is the crisis stage's parsed judgement.
type CrisisAssessment struct {
	Level     CrisisLevel `json:"level"`
	Category  Category    `json:"category"`
	Reasoning string      `json:"reasoning,omitempty"`
	Raw       string      `json:"raw,omitempty"`
}

// ResourceMatch records the counselors presented by the resource stage.
type ResourceMatch struct {
	Category     Category `json:"category"`
	TherapistIDs []string `json:"therapist_ids"`
	Found        bool     `json:"found"`
}

// SchedulingFacts holds support group signup state.
type SchedulingFacts struct {
	Presented   bool   `json:"presented,omitempty"`
	GroupJoined *bool  `json:"group_joined,omitempty"`
	GroupID     string `json:"group_id,omitempty"`
	SignupRef   string `json:"signup_ref,omitempty"`
}

// HabitPlan records the habits recommended by the habit stage.
type HabitPlan struct {
	Category Category      `json:"category"`
	Habits   []HabitRecord `json:"habits"`
}

// HabitIDs returns the recommended habit ids in order.
func (p *HabitPlan) HabitIDs() []string {
	if p == nil {
		return nil
	}
	ids := make([]string, len(p.Habits))
	for i, h := range p.Habits {
		ids[i] = h.ID
	}
	return ids
}

// HabitProgress tracks completions of one recommended habit.
type HabitProgress struct {
	TotalCompletions int               `json:"total_completions"`
	CurrentStreak    int               `json:"current_streak"`
	LongestStreak    int               `json:"longest_streak"`
	LastCompleted    *time.Time        `json:"last_completed,omitempty"`
	History          []HabitCheckEntry `json:"history"`
}

// HabitCheckEntry is one completion report.
type HabitCheckEntry struct {
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
	Notes     string    `json:"notes,omitempty"`
}

// Flag exposes the conventional flag names for display and analytics code.
// Unknown names read as false.
func (s *ConversationState) Flag(name string) bool {
	for _, stage := range StageOrder {
		if name == stage.CompletionFlag() {
			return s.IsComplete(stage)
		}
	}
	f := &s.Facts
	switch name {
	case "force_crisis":
		return f.Intake.ForceCrisis
	case "privacy_presented":
		return f.Privacy.Presented
	case "crisis_category_suggested":
		return f.CrisisCategorySuggested
	case "needs_emergency":
		return f.NeedsEmergency
	case "needs_therapist":
		return f.NeedsTherapist
	case "therapist_match_found":
		return f.Resource != nil && f.Resource.Found
	case "scheduling_presented":
		return f.Scheduling.Presented
	case "support_group_joined":
		return f.Scheduling.GroupJoined != nil && *f.Scheduling.GroupJoined
	case "appointment_booked":
		for _, a := range f.Appointments {
			if a.Status.Active() {
				return true
			}
		}
		return false
	case "workflow_complete":
		return f.WorkflowComplete
	}
	return false
}
