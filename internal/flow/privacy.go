package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// privacyStage captures one of the four privacy tiers. It is the only stage
// that retries on ambiguous input.
type privacyStage struct {
	detector Detector
}

func (s *privacyStage) Process(_ context.Context, state *models.ConversationState) error {
	if !state.Facts.Privacy.Presented {
		state.AddMessage(models.RoleAssistant, privacyPrompt())
		state.Facts.Privacy.Presented = true
		return nil
	}

	tier, ok := s.detector.DetectPrivacyTier(state.LastUserMessage())
	if !ok {
		slog.Debug("PrivacyStage.Process: no tier recognized, asking again", "userID", state.UserID)
		state.AddMessage(models.RoleAssistant, privacyRetryPrompt())
		return nil
	}

	ApplyPrivacySelection(state, tier)
	state.AddMessage(models.RoleAssistant, privacyConfirmation(tier))
	slog.Info("PrivacyStage.Process: tier selected", "userID", state.UserID, "tier", tier)
	return nil
}

// ApplyPrivacySelection records tier and completes the privacy stage. It is
// shared by the conversational path and direct API selection.
func ApplyPrivacySelection(state *models.ConversationState, tier models.PrivacyTier) {
	state.Facts.Privacy.Presented = true
	state.Facts.Privacy.Selection = &models.PrivacySelection{Tier: tier}
	state.MarkComplete(models.StagePrivacy)
}
