package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/NimaCare/internal/models"
)

func TestContainsCrisisLanguage(t *testing.T) {
	m := New()

	for _, text := range []string{
		"I want to KILL MYSELF",
		"sometimes I think about suicide",
		"I just can't go on like this",
		"I can’t go on anymore",
		"thinking about an overdose",
	} {
		assert.True(t, m.ContainsCrisisLanguage(text), text)
	}
	for _, text := range []string{
		"I'm struggling at work",
		"my diet is not going well",
		"I studied all night",
	} {
		assert.False(t, m.ContainsCrisisLanguage(text), text)
	}
}

func TestIsAffirmative(t *testing.T) {
	m := New()

	for _, text := range []string{"yes", "Yeah, that sounds right", "sure!", "OK", "That's right."} {
		assert.True(t, m.IsAffirmative(text), text)
	}
	for _, text := range []string{"no", "I'm not sure", "book a room", "eyes", "nope, not really"} {
		assert.False(t, m.IsAffirmative(text), text)
	}
}

func TestIsNegative(t *testing.T) {
	m := New()
	assert.True(t, m.IsNegative("No, I want someone else"))
	assert.True(t, m.IsNegative("that's wrong"))
	assert.False(t, m.IsNegative("I know what you mean"))
}

func TestWantsToJoin(t *testing.T) {
	m := New()
	assert.True(t, m.WantsToJoin("sure"))
	assert.True(t, m.WantsToJoin("Please sign up me"))
	assert.False(t, m.WantsToJoin("not interested, thanks"))
	assert.False(t, m.WantsToJoin("maybe later"))
}

func TestAcceptanceWithIncidentalNegation(t *testing.T) {
	m := New()

	tests := []struct {
		text     string
		accepted bool
	}{
		{"Sure, I don't mind joining", true},
		{"Yes, no problem", true},
		{"yes please, why not", true},
		{"Sure, it can't hurt", true},
		{"no thanks", false},
		{"No, I'd rather not", false},
		{"yes but not right now", false},
		{"I'm not interested, sorry", false},
		{"nah", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.accepted, m.WantsToJoin(tt.text), "WantsToJoin")
			assert.Equal(t, tt.accepted, m.IsAffirmative(tt.text), "IsAffirmative")
			assert.Equal(t, !tt.accepted, m.IsNegative(tt.text), "IsNegative")
		})
	}
}

func TestOffersMatching(t *testing.T) {
	m := New()
	assert.True(t, m.OffersMatching("Would you like me to connect you with a volunteer therapist?"))
	assert.False(t, m.OffersMatching("How are you feeling today?"))
}

func TestIsCannedFallback(t *testing.T) {
	m := New()
	assert.True(t, m.IsCannedFallback("I'm here to help. Could you tell me more about what brings you here today?"))
	assert.True(t, m.IsCannedFallback("  I’m here to listen. Take your time."))
	assert.False(t, m.IsCannedFallback("It sounds like work has been exhausting."))
}

func TestDetectCategory(t *testing.T) {
	m := New()

	tests := []struct {
		text string
		want models.Category
	}{
		{"I'm struggling at work, feeling unfulfilled and burned out", models.CategoryCareer},
		{"my anxiety is through the roof", models.CategoryAnxiety},
		{"I've been so depressed", models.CategoryDepression},
		{"flashbacks keep coming", models.CategoryTrauma},
		{"my partner and I keep fighting", models.CategoryRelationships},
		{"my dad passed away", models.CategoryGrief},
		{"I relapse every weekend", models.CategoryAddiction},
	}
	for _, tt := range tests {
		got, ok := m.DetectCategory(tt.text)
		require.True(t, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}

	_, ok := m.DetectCategory("homework is fine")
	assert.False(t, ok)
}

func TestDetectPrivacyTier(t *testing.T) {
	m := New()

	tests := []struct {
		text string
		want models.PrivacyTier
	}{
		{"Full Support please", models.PrivacyTierFullSupport},
		{"assisted handoff", models.PrivacyTierAssistedHandoff},
		{"I'd like private notes", models.PrivacyTierYourPrivateNotes},
		{"no records", models.PrivacyTierNoRecords},
		{"keep me anonymous", models.PrivacyTierNoRecords},
		{"option 2", models.PrivacyTierAssistedHandoff},
		{"the third one", models.PrivacyTierYourPrivateNotes},
		{"4.", models.PrivacyTierNoRecords},
	}
	for _, tt := range tests {
		got, ok := m.DetectPrivacyTier(tt.text)
		require.True(t, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}

	_, ok := m.DetectPrivacyTier("hmm, what do you mean?")
	assert.False(t, ok)
}
