package flow

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// schedulingStage offers an opt-in peer support group. It never calls the generator.
type schedulingStage struct {
	detector  Detector
	catalog   Catalog
	signupRef func() string
}

func (s *schedulingStage) Process(_ context.Context, state *models.ConversationState) error {
	category := state.ResolvedCategory()

	if !state.Facts.Scheduling.Presented {
		state.AddMessage(models.RoleAssistant, schedulingOffer(category, s.catalog.GroupsFor(category)))
		state.Facts.Scheduling.Presented = true
		return nil
	}

	joined := s.detector.WantsToJoin(state.LastUserMessage())
	state.Facts.Scheduling.GroupJoined = &joined

	if joined {
		var group *models.SupportGroup
		if groups := s.catalog.GroupsFor(category); len(groups) > 0 {
			group = &groups[0]
			state.Facts.Scheduling.GroupID = group.ID
		}
		state.Facts.Scheduling.SignupRef = s.signupRef()
		slog.Info("SchedulingStage.Process: support group joined", "userID", state.UserID,
			"groupID", state.Facts.Scheduling.GroupID, "signupRef", state.Facts.Scheduling.SignupRef)
		state.AddMessage(models.RoleAssistant, schedulingJoined(group))
	} else {
		slog.Debug("SchedulingStage.Process: support group declined", "userID", state.UserID)
		state.AddMessage(models.RoleAssistant, schedulingDeclineMessage)
	}

	state.MarkComplete(models.StageScheduling)
	return nil
}

// maxGroupMatches is how many ranked groups MatchGroups returns.
const maxGroupMatches = 3

// MatchGroups ranks groups by fit with prefs and returns at most three. A
// matching meeting time or style scores 3, a matching size 2, and a
// professionally facilitated group 2 when one is wanted. Ties keep roster order.
func MatchGroups(groups []models.SupportGroup, prefs models.GroupPreferences) []models.ScoredGroup {
	scored := make([]models.ScoredGroup, len(groups))
	for i, g := range groups {
		scored[i] = models.ScoredGroup{Group: g, Score: groupScore(g, prefs)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > maxGroupMatches {
		scored = scored[:maxGroupMatches]
	}
	return scored
}

func groupScore(g models.SupportGroup, prefs models.GroupPreferences) int {
	score := 0
	if fitsAvailability(g.MeetingTime, prefs.AvailableTimes) {
		score += 3
	}
	if prefs.PreferredSize != "" && prefs.PreferredSize == g.Size {
		score += 2
	}
	if prefs.PreferredStyle != "" && string(prefs.PreferredStyle) == strings.ToLower(g.Style) {
		score += 3
	}
	if prefs.WantsProfessional {
		f := strings.ToLower(g.Facilitator)
		if strings.Contains(f, "therapist") || strings.Contains(f, "coach") {
			score += 2
		}
	}
	return score
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// fitsAvailability reports whether any entry of available ("tuesday",
// "evening" or "tuesday_evening") covers the meeting time.
func fitsAvailability(meeting string, available []string) bool {
	days, period := meetingSchedule(meeting)
	for _, slot := range available {
		parts := strings.FieldsFunc(strings.ToLower(slot), func(r rune) bool {
			return r == '_' || r == '-' || r == ' '
		})
		if len(parts) == 0 {
			continue
		}
		fits := true
		for _, part := range parts {
			if part != period && !containsString(days, strings.TrimSuffix(part, "s")) {
				fits = false
				break
			}
		}
		if fits {
			return true
		}
	}
	return false
}

// meetingSchedule reads "Mondays & Thursdays 8pm EST" as its weekdays and
// period of day. An unreadable time yields an empty period.
func meetingSchedule(meeting string) ([]string, string) {
	lower := strings.ToLower(meeting)
	var days []string
	for _, d := range weekdays {
		if strings.Contains(lower, d) {
			days = append(days, d)
		}
	}
	for _, field := range strings.Fields(lower) {
		if hour, ok := parseMeetingHour(field); ok {
			return days, periodOfDay(hour)
		}
	}
	return days, ""
}

// parseMeetingHour reads "7pm", "10am" or "6:30pm" as a 24-hour clock hour.
func parseMeetingHour(field string) (int, bool) {
	var pm bool
	switch {
	case strings.HasSuffix(field, "pm"):
		pm = true
	case strings.HasSuffix(field, "am"):
	default:
		return 0, false
	}
	num, _, _ := strings.Cut(field[:len(field)-2], ":")
	h, err := strconv.Atoi(num)
	if err != nil || h < 1 || h > 12 {
		return 0, false
	}
	if h == 12 {
		h = 0
	}
	if pm {
		h += 12
	}
	return h, true
}

func periodOfDay(hour int) string {
	switch {
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
