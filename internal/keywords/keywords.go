// Package keywords implements the deterministic keyword heuristics used by the
// intake workflow: crisis phrase detection, affirmation and disagreement
// detection, category inference and privacy tier parsing.
//
// Crisis phrases are plain case-insensitive substrings. Every other set is
// matched on word boundaries so that "ok" does not fire on "book".
package keywords

import (
	"strings"
	"unicode"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// CrisisPhrases trigger the intake safety short-circuit.
var CrisisPhrases = []string{
	"kill myself",
	"end it all",
	"suicide",
	"hurt myself",
	"take my life",
	"want to die",
	"overdose",
	"can't go on",
}

// Affirmatives confirm a suggestion or accept an offer.
var Affirmatives = []string{
	"yes", "yeah", "yep", "yup", "sure", "okay", "ok", "please",
	"correct", "right", "exactly", "absolutely", "definitely",
	"sounds good", "sounds right", "that's right", "i'd like that",
	"let's do it", "that would help",
}

// JoinPhrases accept the support group offer.
var JoinPhrases = []string{
	"yes", "sure", "okay", "ok", "join", "sign up", "interested", "sounds good",
}

// Refusals mark disagreement anywhere in a message and veto an affirmative
// in the same message. Bare "no", "not" and "don't" are left out so that
// "no problem" or "I don't mind" still read as acceptance.
var Refusals = []string{
	"nope", "nah", "no thanks", "no thank you", "not interested",
	"rather not", "not really", "not right now", "not now", "not for me",
	"not sure", "not quite", "not right", "that's not", "don't want",
	"do not want", "wrong", "someone else", "something else", "never mind",
	"i'll pass",
}

// LeadingNegatives refuse only as the first word of a reply ("No, it's more
// about my marriage").
var LeadingNegatives = []string{"no", "nope", "nah", "never"}

// MatchingOffers are assistant phrases that offer to connect the user with a counselor.
var MatchingOffers = []string{
	"would you like to be matched",
	"would you like me to connect",
	"would you like me to match",
	"connect you with",
	"match you with",
	"volunteer therapist",
	"volunteer counselor",
}

// FallbackOpeners begin every canned fallback reply and the typical provider declines.
var FallbackOpeners = []string{
	"i'm here to help.",
	"i'm here to listen.",
	"i'm sorry, but i can't",
	"i can't assist with that",
}

// CategoryKeywords maps each category to the words that select it.
// CategoryGeneral has no keywords; it is only ever a fallback.
var CategoryKeywords = map[models.Category][]string{
	models.CategoryAnxiety: {
		"anxiety", "anxious", "panic", "panic attacks", "worry", "worried",
		"nervous", "on edge", "overthinking",
	},
	models.CategoryDepression: {
		"depression", "depressed", "hopeless", "sad", "empty", "numb",
		"no motivation", "worthless",
	},
	models.CategoryTrauma: {
		"trauma", "traumatic", "ptsd", "flashback", "flashbacks", "abuse",
		"assault", "nightmares",
	},
	models.CategoryRelationships: {
		"relationship", "relationships", "partner", "marriage", "divorce",
		"breakup", "break up", "boyfriend", "girlfriend", "husband", "wife",
		"family",
	},
	models.CategoryCareer: {
		"career", "work", "job", "boss", "coworker", "coworkers", "workplace",
		"burnout", "burned out", "burnt out", "unfulfilled", "laid off",
	},
	models.CategoryGrief: {
		"grief", "grieving", "loss", "passed away", "bereavement", "mourning",
		"lost my",
	},
	models.CategoryAddiction: {
		"addiction", "addicted", "drinking", "alcohol", "drugs", "substance",
		"relapse", "gambling", "sober",
	},
}

// privacyTierPhrases are checked in tier order before the ordinal fallback.
var privacyTierPhrases = []struct {
	tier    models.PrivacyTier
	phrases []string
}{
	{models.PrivacyTierFullSupport, []string{"full support", "full", "maximum support", "all the way"}},
	{models.PrivacyTierAssistedHandoff, []string{"assisted handoff", "assisted", "help connect", "transitions"}},
	{models.PrivacyTierYourPrivateNotes, []string{"private notes", "your private", "high level", "my notes"}},
	{models.PrivacyTierNoRecords, []string{"no records", "nothing saved", "totally private", "anonymous"}},
}

var privacyTierOrdinals = []struct {
	tier    models.PrivacyTier
	phrases []string
}{
	{models.PrivacyTierFullSupport, []string{"1", "first"}},
	{models.PrivacyTierAssistedHandoff, []string{"2", "second"}},
	{models.PrivacyTierYourPrivateNotes, []string{"3", "third"}},
	{models.PrivacyTierNoRecords, []string{"4", "fourth"}},
}

// Matcher is the keyword-set implementation of the workflow detector.
// The zero value is not usable; call New.
type Matcher struct {
	crisis    []string
	affirm    []string
	join      []string
	refusals  []string
	leading   []string
	offers    []string
	fallbacks []string
}

// New returns a Matcher over the package keyword sets.
func New() *Matcher {
	return &Matcher{
		crisis:    CrisisPhrases,
		affirm:    Affirmatives,
		join:      JoinPhrases,
		refusals:  Refusals,
		leading:   LeadingNegatives,
		offers:    MatchingOffers,
		fallbacks: FallbackOpeners,
	}
}

// ContainsCrisisLanguage reports whether text contains any crisis phrase.
func (m *Matcher) ContainsCrisisLanguage(text string) bool {
	t := normalizeApostrophes(strings.ToLower(text))
	for _, phrase := range m.crisis {
		if strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}

// IsAffirmative reports an affirmative that is not refused in the same message.
func (m *Matcher) IsAffirmative(text string) bool {
	w := words(text)
	return w.hasAny(m.affirm) && !m.refuses(w)
}

// IsNegative reports a refusal phrase or a reply that starts with "no".
func (m *Matcher) IsNegative(text string) bool {
	return m.refuses(words(text))
}

// WantsToJoin reports acceptance of a support group offer.
func (m *Matcher) WantsToJoin(text string) bool {
	w := words(text)
	return w.hasAny(m.join) && !m.refuses(w)
}

func (m *Matcher) refuses(w wordText) bool {
	if w.hasAny(m.refusals) {
		return true
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(w)), " ")
	for _, lead := range m.leading {
		if first == lead {
			return true
		}
	}
	return false
}

// OffersMatching reports whether an assistant message offered counselor matching.
func (m *Matcher) OffersMatching(assistantText string) bool {
	t := normalizeApostrophes(strings.ToLower(assistantText))
	for _, phrase := range m.offers {
		if strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}

// IsCannedFallback reports whether text starts with a known fallback opener.
func (m *Matcher) IsCannedFallback(text string) bool {
	t := normalizeApostrophes(strings.ToLower(strings.TrimSpace(text)))
	for _, opener := range m.fallbacks {
		if strings.HasPrefix(t, opener) {
			return true
		}
	}
	return false
}

// DetectCategory returns the first category (in models.Categories order) with a
// keyword present in text.
func (m *Matcher) DetectCategory(text string) (models.Category, bool) {
	w := words(text)
	for _, c := range models.Categories {
		if w.hasAny(CategoryKeywords[c]) {
			return c, true
		}
	}
	return "", false
}

// DetectPrivacyTier classifies a privacy reply. Tier phrases win over ordinals.
func (m *Matcher) DetectPrivacyTier(text string) (models.PrivacyTier, bool) {
	w := words(text)
	for _, entry := range privacyTierPhrases {
		if w.hasAny(entry.phrases) {
			return entry.tier, true
		}
	}
	for _, entry := range privacyTierOrdinals {
		if w.hasAny(entry.phrases) {
			return entry.tier, true
		}
	}
	return "", false
}

// wordText is lowercased text padded with single spaces between words.
type wordText string

func words(text string) wordText {
	var b strings.Builder
	b.WriteByte(' ')
	space := true
	for _, r := range normalizeApostrophes(strings.ToLower(text)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return wordText(b.String())
}

func (w wordText) has(phrase string) bool {
	return strings.Contains(string(w), " "+phrase+" ")
}

func (w wordText) hasAny(phrases []string) bool {
	for _, p := range phrases {
		if w.has(p) {
			return true
		}
	}
	return false
}

func normalizeApostrophes(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}
