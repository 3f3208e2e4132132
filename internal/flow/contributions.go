package flow

import (
	"fmt"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// Contribution summarizes what one completed stage did for the user.
type Contribution struct {
	Stage   models.Stage `json:"stage"`
	Summary string       `json:"summary"`
}

// Contributions lists completed stages in routing order with a one-line summary each.
func Contributions(state *models.ConversationState) []Contribution {
	out := []Contribution{}
	f := &state.Facts
	for _, stage := range models.StageOrder {
		if !state.IsComplete(stage) {
			continue
		}
		var summary string
		switch stage {
		case models.StageIntake:
			summary = "Gathered initial context and built rapport"
		case models.StagePrivacy:
			if f.Privacy.Selection != nil {
				summary = "Privacy: " + f.Privacy.Selection.Tier.DisplayName()
			} else {
				summary = "Privacy preferences recorded"
			}
		case models.StageCrisis:
			level := state.CrisisLevel()
			summary = fmt.Sprintf("Risk Level: %s • Suggested: %s counselor", level.Title(), state.ResolvedCategory().Title())
		case models.StageResource:
			n := 0
			if f.Resource != nil {
				n = len(f.Resource.TherapistIDs)
			}
			summary = fmt.Sprintf("Matched %d %s specialists", n, state.ResolvedCategory())
		case models.StageScheduling:
			if f.Scheduling.GroupJoined != nil && *f.Scheduling.GroupJoined {
				summary = "Joined a peer support group waitlist"
			} else {
				summary = "Offered a peer support group"
			}
		case models.StageHabit:
			n := 0
			if f.Habits != nil {
				n = len(f.Habits.Habits)
			}
			summary = fmt.Sprintf("Recommended %d evidence-based habits", n)
		}
		out = append(out, Contribution{Stage: stage, Summary: summary})
	}
	return out
}
