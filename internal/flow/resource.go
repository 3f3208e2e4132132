package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/models"
)

// resourceStage filters the counselor roster by the resolved category. It
// completes after a single pass.
type resourceStage struct {
	responder *responder
	detector  Detector
	catalog   Catalog
}

func (s *resourceStage) Process(ctx context.Context, state *models.ConversationState) error {
	if category, ok := s.detector.DetectCategory(state.LastUserMessage()); ok {
		state.Facts.SelectedCategory = category
	}
	category := state.ResolvedCategory()
	counselors := s.catalog.CounselorsFor(category)

	if len(counselors) == 0 {
		slog.Info("ResourceStage.Process: no counselors for category", "userID", state.UserID, "category", category)
		state.Facts.Resource = &models.ResourceMatch{Category: category, TherapistIDs: []string{}, Found: false}
		state.AddMessage(models.RoleAssistant, NoCounselorMessage(category))
		state.MarkComplete(models.StageResource)
		return nil
	}

	if len(counselors) > maxPresentedCounselors {
		counselors = counselors[:maxPresentedCounselors]
	}
	ids := make([]string, len(counselors))
	for i, c := range counselors {
		ids[i] = c.ID
	}
	state.Facts.Resource = &models.ResourceMatch{Category: category, TherapistIDs: ids, Found: true}

	text, fellBack := s.responder.generate(ctx, models.StageResource, state, genai.Request{
		SystemPrompt: resourceSystemPrompt,
		History:      historyTurns(state.Messages, crisisHistoryWindow),
		ExtraContext: resourceInstruction(category, counselors),
		Temperature:  resourceTemperature,
		MaxTokens:    resourceMaxTokens,
	})
	if fellBack {
		text = counselorList(category, counselors)
	}

	slog.Info("ResourceStage.Process: counselors matched", "userID", state.UserID, "category", category, "count", len(ids))
	state.AddMessage(models.RoleAssistant, text)
	state.MarkComplete(models.StageResource)
	return nil
}

// counselorList is the deterministic presentation used when generation fails.
func counselorList(category models.Category, counselors []models.Counselor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I'm here to help. I found %s who could be a good fit:\n\n", counselorNoun(category))
	for _, c := range counselors {
		specs := make([]string, len(c.Specializations))
		for i, s := range c.Specializations {
			specs[i] = string(s)
		}
		fmt.Fprintf(&b, "• **%s** (%s, %d years of experience)\n", c.Name, strings.Join(specs, ", "), c.YearsExperience)
	}
	b.WriteString("\nAny of them would be glad to support you.")
	return b.String()
}
