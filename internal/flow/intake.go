package flow

import (
	"context"
	"log/slog"

	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/models"
)

// maxIntakeFallbacks is how many canned replies intake tolerates before handing off.
const maxIntakeFallbacks = 3

// intakeStage builds rapport and gates the crisis short-circuit.
type intakeStage struct {
	responder *responder
	detector  Detector
}

func (s *intakeStage) Process(ctx context.Context, state *models.ConversationState) error {
	last := state.LastUserMessage()

	// Must run before any other intake logic.
	if s.detector.ContainsCrisisLanguage(last) {
		slog.Warn("IntakeStage.Process: crisis language detected", "userID", state.UserID)
		state.AddMessage(models.RoleAssistant, SafetyMessage)
		state.Facts.Intake.ForceCrisis = true
		state.MarkComplete(models.StageIntake)
		return nil
	}

	if s.agreedToMatching(state, last) {
		slog.Debug("IntakeStage.Process: user accepted matching offer", "userID", state.UserID)
		state.AddMessage(models.RoleAssistant, IntakeAgreementMessage)
		state.MarkComplete(models.StageIntake)
		return nil
	}

	turns := state.UserTurnCount()
	instruction, ready := intakeInstruction(turns, s.offeredMatching(state))

	text, fellBack := s.responder.generate(ctx, models.StageIntake, state, genai.Request{
		SystemPrompt: intakeSystemPrompt,
		History:      historyTurns(state.Messages, 0),
		ExtraContext: instruction,
		Temperature:  intakeTemperature,
		MaxTokens:    intakeMaxTokens,
	})

	if fellBack || s.detector.IsCannedFallback(text) {
		state.Facts.Intake.FallbackCount++
		if state.Facts.Intake.FallbackCount >= maxIntakeFallbacks {
			slog.Warn("IntakeStage.Process: repeated canned replies, handing off", "userID", state.UserID, "count", state.Facts.Intake.FallbackCount)
			state.AddMessage(models.RoleAssistant, IntakeFallbackHandoffMessage)
			state.MarkComplete(models.StageIntake)
			return nil
		}
	}

	state.AddMessage(models.RoleAssistant, text)
	if ready {
		state.MarkComplete(models.StageIntake)
	}
	return nil
}

// offeredMatching reports whether either of the last two assistant messages offered matching.
func (s *intakeStage) offeredMatching(state *models.ConversationState) bool {
	for _, msg := range state.LastAssistantMessages(2) {
		if s.detector.OffersMatching(msg) {
			return true
		}
	}
	return false
}

func (s *intakeStage) agreedToMatching(state *models.ConversationState, last string) bool {
	return s.offeredMatching(state) && s.detector.IsAffirmative(last)
}
