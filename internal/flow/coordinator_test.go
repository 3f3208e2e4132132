package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/metrics"
	"github.com/BTreeMap/NimaCare/internal/models"
	"github.com/BTreeMap/NimaCare/internal/testutil"
)

func newTestCoordinator(gen genai.ClientInterface, opts ...Option) *Coordinator {
	opts = append([]Option{WithSignupRefFunc(func() string { return "signup_test" })}, opts...)
	return NewCoordinator(gen, opts...)
}

// send appends a user message and advances once, returning the assistant reply.
func send(t *testing.T, c *Coordinator, state *models.ConversationState, text string) string {
	t.Helper()
	before := len(state.Messages)
	state.AddMessage(models.RoleUser, text)
	_, err := c.Advance(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, state.Messages, before+2, "each advance appends exactly one reply")
	reply := state.Messages[len(state.Messages)-1]
	require.Equal(t, models.RoleAssistant, reply.Role)
	return reply.Content
}

// stateWith returns a state whose given stages are already complete.
func stateWith(stages ...models.Stage) *models.ConversationState {
	state := models.NewConversationState("user-1")
	for _, s := range stages {
		state.MarkComplete(s)
	}
	return state
}

func TestCareerScenario(t *testing.T) {
	gen := testutil.NewScriptedGenerator(
		"That sounds exhausting. How are you feeling right now?",
		"Thank you for telling me. What brought you here today?",
		"Months is a long time to carry that. What has it been like?",
		"Dreading the week says a lot. How is it affecting your evenings?",
		"I hear how much this has worn on you. Would you like me to connect you with a volunteer counselor?",
		"LEVEL: moderate\nCATEGORY: career\nREASONING: burnout and lack of fulfilment at work\nRESPONSE: Thank you for sharing how draining work has been.",
		"Dr. Emily Rodriguez and Daniel Kim both work with career stress and would be a great fit.",
	)
	c := newTestCoordinator(gen)
	state := models.NewConversationState("user-1")

	send(t, c, state, "I'm struggling at work, feeling unfulfilled and burned out")
	send(t, c, state, "Pretty drained, honestly.")
	send(t, c, state, "It has been like this for months.")
	send(t, c, state, "I dread Mondays.")
	assert.False(t, state.IsComplete(models.StageIntake))

	send(t, c, state, "I just want to feel like myself again.")
	require.True(t, state.IsComplete(models.StageIntake))
	assert.False(t, state.Facts.Intake.ForceCrisis)

	reply := send(t, c, state, "yes please")
	assert.Contains(t, reply, PrivacyOptions)
	assert.Equal(t, models.StagePrivacy, state.ActiveStage)

	send(t, c, state, "full support")
	require.True(t, state.IsComplete(models.StagePrivacy))
	assert.Equal(t, models.PrivacyTierFullSupport, state.Facts.Privacy.Selection.Tier)

	reply = send(t, c, state, "okay")
	assert.Contains(t, reply, "Thank you for sharing how draining work has been.")
	assert.Contains(t, reply, "Does that sound right?")
	assert.False(t, state.IsComplete(models.StageCrisis))
	require.NotNil(t, state.Facts.Crisis)
	assert.Equal(t, models.CategoryCareer, state.Facts.Crisis.Category)
	assert.Equal(t, models.CrisisLevelModerate, state.Facts.Crisis.Level)
	assert.True(t, state.Facts.NeedsTherapist)

	send(t, c, state, "yes")
	require.True(t, state.IsComplete(models.StageCrisis))
	assert.Equal(t, models.CategoryCareer, state.Facts.SelectedCategory)

	send(t, c, state, "thank you")
	require.True(t, state.IsComplete(models.StageResource))
	require.NotNil(t, state.Facts.Resource)
	assert.True(t, state.Facts.Resource.Found)
	assert.Equal(t, []string{"therapist_003", "therapist_006"}, state.Facts.Resource.TherapistIDs)

	reply = send(t, c, state, "what's next?")
	assert.Contains(t, reply, "Career Transition Support")
	assert.NotContains(t, reply, "Work-Life Balance Circle", "full groups are not offered")

	send(t, c, state, "sure")
	require.True(t, state.IsComplete(models.StageScheduling))
	require.NotNil(t, state.Facts.Scheduling.GroupJoined)
	assert.True(t, *state.Facts.Scheduling.GroupJoined)
	assert.Equal(t, "car_group_001", state.Facts.Scheduling.GroupID)
	assert.Equal(t, "signup_test", state.Facts.Scheduling.SignupRef)

	reply = send(t, c, state, "thanks")
	require.True(t, state.IsComplete(models.StageHabit))
	assert.Equal(t, []string{"habit_car_reflection", "habit_car_skills", "habit_car_boundary"}, state.Facts.Habits.HabitIDs())
	assert.Contains(t, reply, "End-of-day reflection")
	assert.Contains(t, reply, "Skills development time")
	assert.Contains(t, reply, "Work-life boundary ritual")

	reply = send(t, c, state, "bye")
	assert.True(t, state.Facts.WorkflowComplete)
	assert.Equal(t, models.StageComplete, state.ActiveStage)
	assert.Contains(t, reply, "career counselors")
	assert.Equal(t, reply, state.Facts.ClosingMessage)
	assert.NotContains(t, reply, "988")

	assert.Equal(t, 7, gen.Calls())
}

func TestNextStageFollowsFixedOrder(t *testing.T) {
	tests := []struct {
		name     string
		done     []models.Stage
		expected models.Stage
	}{
		{"fresh state", nil, models.StageIntake},
		{"intake done", []models.Stage{models.StageIntake}, models.StagePrivacy},
		{"gap before later stages", []models.Stage{models.StageIntake, models.StageCrisis, models.StageResource}, models.StagePrivacy},
		{"only habit missing", []models.Stage{models.StageIntake, models.StagePrivacy, models.StageCrisis, models.StageResource, models.StageScheduling}, models.StageHabit},
		{"all done", models.StageOrder, models.StageComplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextStage(stateWith(tt.done...)))
		})
	}
}

func TestCompletionFlagsAreMonotonic(t *testing.T) {
	c := newTestCoordinator(nil)
	state := models.NewConversationState("user-1")
	inputs := []string{"hello", "work is hard", "I'm anxious", "1", "maybe", "no", "sure", "ok", "nah", "yes"}

	for i := 0; i < 40; i++ {
		before := map[models.Stage]bool{}
		for _, s := range models.StageOrder {
			before[s] = state.IsComplete(s)
		}
		expected := NextStage(state)

		state.AddMessage(models.RoleUser, inputs[i%len(inputs)])
		_, err := c.Advance(context.Background(), state)
		require.NoError(t, err)

		assert.Equal(t, expected, state.ActiveStage, "message %d routed out of order", i)
		for _, s := range models.StageOrder {
			if before[s] {
				assert.True(t, state.IsComplete(s), "stage %s reverted at message %d", s, i)
			}
		}
	}
	assert.True(t, state.Facts.WorkflowComplete)
}

func TestCrisisShortCircuitIgnoresTurnCount(t *testing.T) {
	for _, priorTurns := range []int{0, 9} {
		t.Run(fmt.Sprintf("turn %d", priorTurns+1), func(t *testing.T) {
			gen := testutil.NewScriptedGenerator()
			c := newTestCoordinator(gen)
			state := models.NewConversationState("user-1")
			for i := 0; i < priorTurns; i++ {
				state.AddMessage(models.RoleUser, "just talking")
				state.AddMessage(models.RoleAssistant, "I see.")
			}

			reply := send(t, c, state, "I want to end it all")

			assert.Equal(t, SafetyMessage, reply)
			assert.True(t, state.IsComplete(models.StageIntake))
			assert.True(t, state.Facts.Intake.ForceCrisis)
			assert.Zero(t, gen.Calls())
		})
	}
}

func TestForceCrisisFloorsLevelAndAddsResources(t *testing.T) {
	gen := testutil.NewScriptedGenerator("LEVEL: low\nCATEGORY: depression\nRESPONSE: I'm really glad you reached out.")
	c := newTestCoordinator(gen)
	state := stateWith(models.StageIntake, models.StagePrivacy)
	state.Facts.Intake.ForceCrisis = true

	reply := send(t, c, state, "I don't know")

	assert.Equal(t, models.CrisisLevelHigh, state.Facts.Crisis.Level)
	assert.True(t, state.Facts.NeedsTherapist)
	assert.Contains(t, reply, EmergencyResources)
	assert.False(t, state.IsComplete(models.StageCrisis))
	assert.Contains(t, ClosingMessage(state), "988")
}

func TestImmediateCrisisCompletesWithEmergencyResources(t *testing.T) {
	gen := testutil.NewScriptedGenerator("LEVEL: IMMEDIATE\nCATEGORY: depression\nREASONING: stated plan\nRESPONSE: Your safety matters most right now.")
	c := newTestCoordinator(gen)
	state := stateWith(models.StageIntake, models.StagePrivacy)

	reply := send(t, c, state, "I have a plan")

	assert.True(t, state.IsComplete(models.StageCrisis))
	assert.True(t, state.Facts.NeedsEmergency)
	assert.Contains(t, reply, EmergencyResources)
	assert.Contains(t, reply, "Your safety matters most right now.")
}

func TestCategoryOverrideWinsOverSuggestion(t *testing.T) {
	gen := testutil.NewScriptedGenerator("Here are some counselors who focus on career concerns.")
	c := newTestCoordinator(gen)
	state := stateWith(models.StageIntake, models.StagePrivacy, models.StageCrisis)
	state.Facts.Crisis = &models.CrisisAssessment{Level: models.CrisisLevelLow, Category: models.CategoryAnxiety}
	state.Facts.CrisisCategorySuggested = true

	send(t, c, state, "honestly it's really about my job")

	assert.Equal(t, models.CategoryCareer, state.ResolvedCategory())
	assert.Equal(t, []string{"therapist_003", "therapist_006"}, state.Facts.Resource.TherapistIDs)
	assert.Contains(t, gen.Requests()[0].ExtraContext, "needs support with: career")

	state.MarkComplete(models.StageScheduling)
	send(t, c, state, "ok")
	assert.Equal(t, models.CategoryCareer, state.Facts.Habits.Category)
}

func TestTerminalAdvanceIsIdempotent(t *testing.T) {
	c := newTestCoordinator(nil)
	state := stateWith(models.StageOrder...)

	send(t, c, state, "thanks")
	require.True(t, state.Facts.WorkflowComplete)
	count := len(state.Messages)

	state.AddMessage(models.RoleUser, "anything else?")
	_, err := c.Advance(context.Background(), state)
	require.NoError(t, err)
	_, err = c.Advance(context.Background(), state)
	require.NoError(t, err)

	assert.Len(t, state.Messages, count+1, "no second closing message")
}

type emptyCatalog struct{}

func (emptyCatalog) CounselorsFor(models.Category) []models.Counselor { return nil }
func (emptyCatalog) HabitsFor(models.Category) []models.HabitRecord   { return nil }
func (emptyCatalog) GroupsFor(models.Category) []models.SupportGroup  { return nil }

func TestEmptyRosterUsesApologyWithoutGeneration(t *testing.T) {
	gen := testutil.NewScriptedGenerator("should not be used")
	c := newTestCoordinator(gen, WithCatalog(emptyCatalog{}))
	state := stateWith(models.StageIntake, models.StagePrivacy, models.StageCrisis)
	state.Facts.SelectedCategory = models.CategoryGrief

	reply := send(t, c, state, "okay")

	assert.Equal(t, NoCounselorMessage(models.CategoryGrief), reply)
	assert.True(t, state.IsComplete(models.StageResource))
	assert.False(t, state.Flag("therapist_match_found"))
	assert.Zero(t, gen.Calls())
}

func TestPrivacyRetryRepresentsOptions(t *testing.T) {
	c := newTestCoordinator(nil)
	state := stateWith(models.StageIntake)

	first := send(t, c, state, "ok")
	assert.True(t, state.Facts.Privacy.Presented)
	assert.Contains(t, first, PrivacyOptions)

	retry := send(t, c, state, "hmm, not sure")
	assert.False(t, state.IsComplete(models.StagePrivacy))
	assert.Contains(t, retry, PrivacyOptions)

	again := send(t, c, state, "what do you mean")
	assert.Equal(t, retry, again)

	confirm := send(t, c, state, "2")
	assert.True(t, state.IsComplete(models.StagePrivacy))
	assert.Equal(t, models.PrivacyTierAssistedHandoff, state.Facts.Privacy.Selection.Tier)
	assert.Contains(t, confirm, "Assisted Handoff")
}

func TestIntakeAgreementCompletesWithoutGeneration(t *testing.T) {
	gen := testutil.NewScriptedGenerator()
	c := newTestCoordinator(gen)
	state := models.NewConversationState("user-1")
	state.AddMessage(models.RoleUser, "hi")
	state.AddMessage(models.RoleAssistant, "Would you like me to connect you with a volunteer counselor?")

	reply := send(t, c, state, "yes, that would help")

	assert.Equal(t, IntakeAgreementMessage, reply)
	assert.True(t, state.IsComplete(models.StageIntake))
	assert.Zero(t, gen.Calls())
}

func TestIntakeFallbackEscalation(t *testing.T) {
	gen := &testutil.ScriptedGenerator{}
	boom := errors.New("connection reset")
	gen.Push(testutil.Reply{Err: boom}, testutil.Reply{Err: boom}, testutil.Reply{Text: "I'm here to help. Tell me more."})
	c := newTestCoordinator(gen)
	state := models.NewConversationState("user-1")

	assert.Equal(t, fallbackGreeting, send(t, c, state, "hello"))
	send(t, c, state, "my boss is awful")
	assert.Equal(t, 2, state.Facts.Intake.FallbackCount)
	assert.False(t, state.IsComplete(models.StageIntake))

	reply := send(t, c, state, "still here")
	assert.Equal(t, IntakeFallbackHandoffMessage, reply)
	assert.True(t, state.IsComplete(models.StageIntake))
}

func TestContentFilterUsesFallbackAndIsCountedSeparately(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	gen := &testutil.ScriptedGenerator{}
	gen.Push(
		testutil.Reply{Err: fmt.Errorf("generate: %w", genai.ErrContentFiltered)},
		testutil.Reply{Err: errors.New("timeout")},
	)
	c := newTestCoordinator(gen, WithMetrics(m))
	state := models.NewConversationState("user-1")

	assert.Equal(t, fallbackGreeting, send(t, c, state, "hello"))
	reply := send(t, c, state, "I feel so anxious lately")
	assert.Equal(t, fallbackByCategory[models.CategoryAnxiety], reply)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.GenerationFailures.WithLabelValues("intake", metrics.FailureFiltered)))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.GenerationFailures.WithLabelValues("intake", metrics.FailureError)))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.StageRuns.WithLabelValues("intake")))
}

func TestCrisisFallbackInfersCategoryFromUserMessages(t *testing.T) {
	gen := &testutil.ScriptedGenerator{}
	gen.Push(testutil.Reply{Err: errors.New("unavailable")})
	c := newTestCoordinator(gen)
	state := stateWith(models.StageIntake, models.StagePrivacy)
	state.AddMessage(models.RoleUser, "my marriage is falling apart")
	state.AddMessage(models.RoleAssistant, "That sounds painful.")

	reply := send(t, c, state, "yeah")

	assert.Equal(t, models.CrisisLevelNone, state.Facts.Crisis.Level)
	assert.Equal(t, models.CategoryRelationships, state.Facts.Crisis.Category)
	assert.False(t, state.Facts.NeedsTherapist)
	assert.True(t, strings.HasSuffix(reply, crisisSuggestion(models.CategoryRelationships)))
}

func TestCrisisConfirmationDialogue(t *testing.T) {
	suggested := func() *models.ConversationState {
		state := stateWith(models.StageIntake, models.StagePrivacy)
		state.Facts.Crisis = &models.CrisisAssessment{Level: models.CrisisLevelLow, Category: models.CategoryAnxiety}
		state.Facts.CrisisCategorySuggested = true
		return state
	}

	t.Run("affirmative confirms suggestion", func(t *testing.T) {
		state := suggested()
		reply := send(t, newTestCoordinator(nil), state, "yes")
		assert.True(t, state.IsComplete(models.StageCrisis))
		assert.Equal(t, models.CategoryAnxiety, state.Facts.SelectedCategory)
		assert.Equal(t, crisisConfirmed(models.CategoryAnxiety), reply)
	})

	t.Run("affirmative wins over other category words", func(t *testing.T) {
		state := suggested()
		state.Facts.Crisis.Category = models.CategoryCareer
		reply := send(t, newTestCoordinator(nil), state, "Yes, that sounds right. Work has left me feeling so empty.")
		assert.True(t, state.IsComplete(models.StageCrisis))
		assert.Equal(t, models.CategoryCareer, state.Facts.SelectedCategory)
		assert.Equal(t, crisisConfirmed(models.CategoryCareer), reply)
	})

	t.Run("named category overrides suggestion", func(t *testing.T) {
		state := suggested()
		reply := send(t, newTestCoordinator(nil), state, "no, it's more about my marriage")
		assert.True(t, state.IsComplete(models.StageCrisis))
		assert.Equal(t, models.CategoryRelationships, state.ResolvedCategory())
		assert.Equal(t, crisisOverridden(models.CategoryRelationships), reply)
	})

	t.Run("disagreement is clarified once", func(t *testing.T) {
		c := newTestCoordinator(nil)
		state := suggested()

		reply := send(t, c, state, "no, I want someone else")
		assert.Equal(t, crisisClarifyMessage, reply)
		assert.False(t, state.IsComplete(models.StageCrisis))
		assert.True(t, state.Facts.CrisisOverridePrompted)

		reply = send(t, c, state, "no")
		assert.True(t, state.IsComplete(models.StageCrisis))
		assert.Equal(t, crisisAccepted(models.CategoryAnxiety), reply)
		assert.Equal(t, models.CategoryAnxiety, state.ResolvedCategory())
	})

	t.Run("anything else moves forward", func(t *testing.T) {
		state := suggested()
		reply := send(t, newTestCoordinator(nil), state, "maybe")
		assert.True(t, state.IsComplete(models.StageCrisis))
		assert.Equal(t, crisisAccepted(models.CategoryAnxiety), reply)
	})
}

func TestSchedulingAcceptsPoliteYes(t *testing.T) {
	for _, reply := range []string{"Sure, I don't mind joining", "Yes, no problem", "yes please, why not"} {
		t.Run(reply, func(t *testing.T) {
			c := newTestCoordinator(nil)
			state := stateWith(models.StageIntake, models.StagePrivacy, models.StageCrisis, models.StageResource)
			state.Facts.SelectedCategory = models.CategoryAnxiety

			send(t, c, state, "ok")
			send(t, c, state, reply)

			require.NotNil(t, state.Facts.Scheduling.GroupJoined)
			assert.True(t, *state.Facts.Scheduling.GroupJoined)
			assert.NotEmpty(t, state.Facts.Scheduling.SignupRef)
		})
	}
}

func TestSchedulingDecline(t *testing.T) {
	c := newTestCoordinator(nil)
	state := stateWith(models.StageIntake, models.StagePrivacy, models.StageCrisis, models.StageResource)
	state.Facts.SelectedCategory = models.CategoryRelationships

	offer := send(t, c, state, "ok")
	assert.True(t, state.Facts.Scheduling.Presented)
	assert.Contains(t, offer, "Mental Wellness Circle", "categories without groups fall back to general")

	reply := send(t, c, state, "not interested")
	assert.Equal(t, schedulingDeclineMessage, reply)
	require.NotNil(t, state.Facts.Scheduling.GroupJoined)
	assert.False(t, *state.Facts.Scheduling.GroupJoined)
	assert.Empty(t, state.Facts.Scheduling.SignupRef)
	assert.True(t, state.IsComplete(models.StageScheduling))
}

func TestApplyPrivacySelection(t *testing.T) {
	state := models.NewConversationState("user-1")
	ApplyPrivacySelection(state, models.PrivacyTierNoRecords)

	assert.True(t, state.IsComplete(models.StagePrivacy))
	assert.True(t, state.Facts.Privacy.Presented)
	assert.Equal(t, models.PrivacyTierNoRecords, state.Facts.Privacy.Selection.Tier)
	assert.Equal(t, models.StageIntake, NextStage(state))
}

func TestContributions(t *testing.T) {
	state := stateWith(models.StageIntake, models.StageCrisis, models.StageResource, models.StageHabit)
	state.Facts.Crisis = &models.CrisisAssessment{Level: models.CrisisLevelModerate, Category: models.CategoryCareer}
	state.Facts.Resource = &models.ResourceMatch{Category: models.CategoryCareer, TherapistIDs: []string{"a", "b"}, Found: true}
	state.Facts.Habits = &models.HabitPlan{Category: models.CategoryCareer, Habits: make([]models.HabitRecord, 3)}

	got := Contributions(state)

	require.Len(t, got, 4)
	assert.Equal(t, "Gathered initial context and built rapport", got[0].Summary)
	assert.Equal(t, "Risk Level: Moderate • Suggested: Career counselor", got[1].Summary)
	assert.Equal(t, "Matched 2 career specialists", got[2].Summary)
	assert.Equal(t, "Recommended 3 evidence-based habits", got[3].Summary)
}

func TestNoRecordsTierMarksGenerationRequests(t *testing.T) {
	gen := testutil.NewScriptedGenerator("LEVEL: low\nCATEGORY: anxiety\nRESPONSE: Thank you for sharing.")
	c := newTestCoordinator(gen)
	state := stateWith(models.StageIntake)
	ApplyPrivacySelection(state, models.PrivacyTierNoRecords)

	send(t, c, state, "I've been anxious")

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].NoRecords)
}
