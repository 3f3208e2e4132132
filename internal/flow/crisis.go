package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/metrics"
	"github.com/BTreeMap/NimaCare/internal/models"
)

// crisisStage assesses severity, suggests a category and runs the
// confirm/override sub-dialogue: not-suggested -> awaiting confirmation -> complete.
type crisisStage struct {
	responder *responder
	detector  Detector
	metrics   *metrics.Metrics
}

func (s *crisisStage) Process(ctx context.Context, state *models.ConversationState) error {
	if !state.Facts.CrisisCategorySuggested {
		s.assess(ctx, state)
		return nil
	}
	s.confirm(state)
	return nil
}

func (s *crisisStage) assess(ctx context.Context, state *models.ConversationState) {
	text, fellBack := s.responder.generate(ctx, models.StageCrisis, state, genai.Request{
		SystemPrompt: crisisSystemPrompt,
		History:      historyTurns(state.Messages, crisisHistoryWindow),
		ExtraContext: crisisInstruction(),
		Temperature:  crisisTemperature,
		MaxTokens:    crisisMaxTokens,
	})

	var assessment models.CrisisAssessment
	var response string
	if fellBack {
		assessment = models.CrisisAssessment{Level: models.CrisisLevelNone, Category: s.inferCategory(state)}
		response = text
	} else {
		assessment, response = ParseAssessment(text)
	}

	// A crisis phrase at intake keeps the level at least high even if the model disagrees.
	if state.Facts.Intake.ForceCrisis && assessment.Level.Rank() < models.CrisisLevelHigh.Rank() {
		assessment.Level = models.CrisisLevelHigh
	}

	state.Facts.Crisis = &assessment
	state.Facts.CrisisCategorySuggested = true
	applySeverity(state, assessment.Level)
	s.metrics.ObserveCrisisLevel(string(assessment.Level))

	slog.Info("CrisisStage.Process: assessment", "userID", state.UserID,
		"level", assessment.Level, "category", assessment.Category, "fallback", fellBack)

	if assessment.Level == models.CrisisLevelImmediate {
		state.AddMessage(models.RoleAssistant, response+"\n\n"+EmergencyResources+"\n\n"+crisisImmediateHandoff(assessment.Category))
		state.MarkComplete(models.StageCrisis)
		return
	}
	if state.Facts.Intake.ForceCrisis {
		response += "\n\n" + EmergencyResources
	}
	state.AddMessage(models.RoleAssistant, response+"\n\n"+crisisSuggestion(assessment.Category))
}

// confirm handles the reply to the category suggestion. An affirmative
// confirms the suggestion even when the reply mentions other topics; a named
// category overrides only without one. A clear disagreement without a named
// category is asked about once; after that the stage always completes.
func (s *crisisStage) confirm(state *models.ConversationState) {
	last := state.LastUserMessage()
	suggested := state.SuggestedCategory()
	if suggested == "" {
		suggested = models.CategoryGeneral
	}

	if s.detector.IsAffirmative(last) {
		state.Facts.SelectedCategory = suggested
		state.AddMessage(models.RoleAssistant, crisisConfirmed(suggested))
		state.MarkComplete(models.StageCrisis)
		return
	}

	if category, ok := s.detector.DetectCategory(last); ok {
		state.Facts.SelectedCategory = category
		if category == suggested {
			state.AddMessage(models.RoleAssistant, crisisConfirmed(category))
		} else {
			slog.Info("CrisisStage.Process: category overridden", "userID", state.UserID, "suggested", suggested, "selected", category)
			state.AddMessage(models.RoleAssistant, crisisOverridden(category))
		}
		state.MarkComplete(models.StageCrisis)
		return
	}

	if s.detector.IsNegative(last) && !state.Facts.CrisisOverridePrompted {
		state.Facts.CrisisOverridePrompted = true
		state.AddMessage(models.RoleAssistant, crisisClarifyMessage)
		return
	}

	state.AddMessage(models.RoleAssistant, crisisAccepted(suggested))
	state.MarkComplete(models.StageCrisis)
}

// inferCategory scans user messages newest first for a category keyword.
func (s *crisisStage) inferCategory(state *models.ConversationState) models.Category {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		m := state.Messages[i]
		if m.Role != models.RoleUser {
			continue
		}
		if category, ok := s.detector.DetectCategory(m.Content); ok {
			return category
		}
	}
	return models.CategoryGeneral
}

// applySeverity sets the display flags derived from the crisis level.
func applySeverity(state *models.ConversationState, level models.CrisisLevel) {
	switch level {
	case models.CrisisLevelImmediate:
		state.Facts.NeedsEmergency = true
	case models.CrisisLevelHigh, models.CrisisLevelModerate:
		state.Facts.NeedsTherapist = true
	default:
		state.Facts.NeedsTherapist = false
	}
}

// ParseAssessment reads the LEVEL/CATEGORY/REASONING/RESPONSE format. Keys match
// case-insensitively and the first occurrence wins. A missing level is none, a
// missing or unknown category is general, and without RESPONSE the raw text is used.
func ParseAssessment(text string) (models.CrisisAssessment, string) {
	assessment := models.CrisisAssessment{
		Level:    models.CrisisLevelNone,
		Category: models.CategoryGeneral,
		Raw:      text,
	}

	var (
		haveLevel, haveCategory, haveReasoning, haveResponse bool
		response                                             []string
		inResponse                                           bool
	)

	for _, line := range strings.Split(text, "\n") {
		key, value, isKey := splitAssessmentLine(line)
		if !isKey {
			if inResponse {
				response = append(response, strings.TrimSpace(line))
			}
			continue
		}
		inResponse = false

		switch key {
		case "LEVEL":
			if !haveLevel {
				assessment.Level = models.ParseCrisisLevel(value)
				haveLevel = true
			}
		case "CATEGORY":
			if !haveCategory {
				assessment.Category = parseCategoryValue(value)
				haveCategory = true
			}
		case "REASONING":
			if !haveReasoning {
				assessment.Reasoning = value
				haveReasoning = true
			}
		case "RESPONSE":
			if !haveResponse {
				response = append(response, value)
				haveResponse = true
				inResponse = true
			}
		}
	}

	out := strings.TrimSpace(strings.Join(response, "\n"))
	if out == "" {
		out = strings.TrimSpace(text)
	}
	return assessment, out
}

var assessmentKeys = []string{"LEVEL", "CATEGORY", "REASONING", "RESPONSE"}

// splitAssessmentLine recognizes "KEY: value", tolerating markdown bullets and bold.
func splitAssessmentLine(line string) (string, string, bool) {
	cleaned := strings.TrimSpace(line)
	cleaned = strings.TrimLeft(cleaned, "-*#• ")
	idx := strings.Index(cleaned, ":")
	if idx <= 0 {
		return "", "", false
	}
	key := strings.ToUpper(strings.Trim(cleaned[:idx], "* "))
	for _, known := range assessmentKeys {
		if key == known {
			value := strings.TrimSpace(strings.Trim(cleaned[idx+1:], " *"))
			return known, value, true
		}
	}
	return "", "", false
}

func parseCategoryValue(value string) models.Category {
	v := strings.ToLower(strings.Trim(value, " []().*"))
	if c, ok := models.ParseCategory(v); ok {
		return c
	}
	for _, c := range models.Categories {
		if strings.Contains(v, string(c)) {
			return c
		}
	}
	return models.CategoryGeneral
}
