// Package flow implements the intake workflow engine: the Coordinator that
// routes each user message to exactly one stage, and the six stage handlers
// (intake, privacy, crisis, resource, scheduling, habit).
//
// Stages communicate only through models.WorkflowFacts. Routing is recomputed
// from completion flags on every message; ActiveStage is display-only.
package flow

import (
	"context"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// StageHandler processes one message for a single stage. It appends exactly one
// assistant message and may set its own completion flag.
type StageHandler interface {
	Process(ctx context.Context, state *models.ConversationState) error
}

// Detector is the keyword heuristic contract used by the stages. It is an
// interface so a classifier can replace the keyword sets without touching routing.
type Detector interface {
	ContainsCrisisLanguage(text string) bool
	IsAffirmative(text string) bool
	IsNegative(text string) bool
	WantsToJoin(text string) bool
	OffersMatching(assistantText string) bool
	IsCannedFallback(text string) bool
	DetectCategory(text string) (models.Category, bool)
	DetectPrivacyTier(text string) (models.PrivacyTier, bool)
}

// Catalog is the static lookup contract for counselors, habits and groups.
type Catalog interface {
	CounselorsFor(category models.Category) []models.Counselor
	HabitsFor(category models.Category) []models.HabitRecord
	GroupsFor(category models.Category) []models.SupportGroup
}
