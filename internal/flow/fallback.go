package flow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/metrics"
	"github.com/BTreeMap/NimaCare/internal/models"
)

// Every fallback starts with one of the openers the detector treats as canned,
// so repeated fallbacks are visible to the intake escalation counter.
var (
	fallbackGreeting = "I'm here to help. Could you tell me more about what brings you here today?"
	fallbackEarly    = "I'm here to listen. Take your time, and share whatever feels most important right now."
	fallbackLate     = "I'm here to listen. It sounds like you've been carrying a lot, and it makes sense to want some support with it."

	fallbackByCategory = map[models.Category]string{
		models.CategoryCareer:        "I'm here to listen. Work stress can wear you down in ways that reach far beyond the office. What part of it weighs on you most?",
		models.CategoryRelationships: "I'm here to listen. Relationships can be some of the hardest things to navigate. What's been happening between you?",
		models.CategoryAnxiety:       "I'm here to listen. Anxiety can feel overwhelming, and you don't have to handle it alone. When does it tend to show up most?",
		models.CategoryDepression:    "I'm here to listen. Feeling low like this is exhausting, and reaching out takes courage. How long have you been feeling this way?",
	}
)

// fallbackResponse picks a canned reply from the turn count and the latest user message.
func fallbackResponse(state *models.ConversationState, detector Detector) string {
	turns := state.UserTurnCount()
	if turns <= 1 {
		return fallbackGreeting
	}
	if category, ok := detector.DetectCategory(state.LastUserMessage()); ok {
		if text, ok := fallbackByCategory[category]; ok {
			return text
		}
	}
	if turns < 4 {
		return fallbackEarly
	}
	return fallbackLate
}

// responder wraps the generation collaborator with fallback substitution.
// Generation errors never leave the stage.
type responder struct {
	gen      genai.ClientInterface
	detector Detector
	metrics  *metrics.Metrics
}

// generate returns generated text, or a fallback and true when generation failed.
func (r *responder) generate(ctx context.Context, stage models.Stage, state *models.ConversationState, req genai.Request) (string, bool) {
	if r.gen == nil {
		slog.Warn("Coordinator.generate: no generation client configured, using fallback", "stage", stage)
		r.metrics.ObserveGenerationFailure(string(stage), metrics.FailureError)
		return fallbackResponse(state, r.detector), true
	}

	if sel := state.Facts.Privacy.Selection; sel != nil && sel.Tier == models.PrivacyTierNoRecords {
		req.NoRecords = true
	}
	text, err := r.gen.Generate(ctx, req)
	if err == nil {
		return text, false
	}

	if errors.Is(err, genai.ErrContentFiltered) {
		slog.Error("Coordinator.generate: response withheld by content filter, using fallback", "stage", stage, "userID", state.UserID)
		r.metrics.ObserveGenerationFailure(string(stage), metrics.FailureFiltered)
	} else {
		slog.Warn("Coordinator.generate: generation failed, using fallback", "stage", stage, "userID", state.UserID, "error", err)
		r.metrics.ObserveGenerationFailure(string(stage), metrics.FailureError)
	}
	return fallbackResponse(state, r.detector), true
}
