package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// habitStage recommends habits by pure lookup on the resolved category.
type habitStage struct {
	catalog Catalog
}

func (s *habitStage) Process(_ context.Context, state *models.ConversationState) error {
	category := state.ResolvedCategory()
	habits := s.catalog.HabitsFor(category)

	state.Facts.Habits = &models.HabitPlan{Category: category, Habits: habits}
	state.AddMessage(models.RoleAssistant, habitMessage(category, habits))
	state.MarkComplete(models.StageHabit)

	slog.Info("HabitStage.Process: habits recommended", "userID", state.UserID, "category", category, "count", len(habits))
	return nil
}
