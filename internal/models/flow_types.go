package models

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names one step of the intake workflow.
type Stage string

// Stage constants in routing order. StageComplete is the terminal pseudo-stage.
const (
	StageIntake     Stage = "intake"
	StagePrivacy    Stage = "privacy"
	StageCrisis     Stage = "crisis"
	StageResource   Stage = "resource"
	StageScheduling Stage = "scheduling"
	StageHabit      Stage = "habit"
	StageComplete   Stage = "complete"
)

// StageOrder is the fixed total routing order of the workflow.
var StageOrder = []Stage{StageIntake, StagePrivacy, StageCrisis, StageResource, StageScheduling, StageHabit}

// CompletionFlag returns the legacy completion flag name for a stage (e.g. "intake_complete").
func (s Stage) CompletionFlag() string {
	return string(s) + "_complete"
}

// CrisisLevel is the ordered severity assessed by the crisis stage.
type CrisisLevel string

const (
	CrisisLevelNone      CrisisLevel = "none"
	CrisisLevelLow       CrisisLevel = "low"
	CrisisLevelModerate  CrisisLevel = "moderate"
	CrisisLevelHigh      CrisisLevel = "high"
	CrisisLevelImmediate CrisisLevel = "immediate"
)

var crisisLevelRank = map[CrisisLevel]int{
	CrisisLevelNone:      0,
	CrisisLevelLow:       1,
	CrisisLevelModerate:  2,
	CrisisLevelHigh:      3,
	CrisisLevelImmediate: 4,
}

// Rank orders levels: none < low < moderate < high < immediate. Unknown levels rank as none.
func (l CrisisLevel) Rank() int {
	return crisisLevelRank[l]
}

// Title returns the display form of the level ("Moderate").
func (l CrisisLevel) Title() string {
	return Category(l).Title()
}

// ParseCrisisLevel maps free text to a level. The most severe level mentioned wins;
// anything unrecognized is CrisisLevelNone.
func ParseCrisisLevel(text string) CrisisLevel {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "immediate"):
		return CrisisLevelImmediate
	case strings.Contains(t, "high"):
		return CrisisLevelHigh
	case strings.Contains(t, "moderate"):
		return CrisisLevelModerate
	case strings.Contains(t, "low"):
		return CrisisLevelLow
	default:
		return CrisisLevelNone
	}
}

// Category is a counseling specialization.
type Category string

const (
	CategoryAnxiety       Category = "anxiety"
	CategoryDepression    Category = "depression"
	CategoryTrauma        Category = "trauma"
	CategoryRelationships Category = "relationships"
	CategoryCareer        Category = "career"
	CategoryGrief         Category = "grief"
	CategoryAddiction     Category = "addiction"
	CategoryGeneral       Category = "general"
)

// Categories lists every valid category; CategoryGeneral is last.
var Categories = []Category{
	CategoryAnxiety,
	CategoryDepression,
	CategoryTrauma,
	CategoryRelationships,
	CategoryCareer,
	CategoryGrief,
	CategoryAddiction,
	CategoryGeneral,
}

// Title returns the display form of the category ("Career").
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// IsValidCategory reports whether c is one of Categories.
func IsValidCategory(c Category) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// ParseCategory normalizes s and validates it. Unknown values fall back to CategoryGeneral
// with ok=false so callers can decide whether that is an error.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if IsValidCategory(c) {
		return c, true
	}
	return CategoryGeneral, false
}

// PrivacyTier is one of four mutually exclusive data-retention choices.
type PrivacyTier string

const (
	PrivacyTierFullSupport      PrivacyTier = "full_support"
	PrivacyTierAssistedHandoff  PrivacyTier = "assisted_handoff"
	PrivacyTierYourPrivateNotes PrivacyTier = "your_private_notes"
	PrivacyTierNoRecords        PrivacyTier = "no_records"
)

// PrivacyTiers lists the tiers in presentation order.
var PrivacyTiers = []PrivacyTier{
	PrivacyTierFullSupport,
	PrivacyTierAssistedHandoff,
	PrivacyTierYourPrivateNotes,
	PrivacyTierNoRecords,
}

var privacyTierNames = map[PrivacyTier]string{
	PrivacyTierFullSupport:      "Full Support",
	PrivacyTierAssistedHandoff:  "Assisted Handoff",
	PrivacyTierYourPrivateNotes: "Your Private Notes",
	PrivacyTierNoRecords:        "No Records",
}

// DisplayName returns the user-facing tier name.
func (p PrivacyTier) DisplayName() string {
	if name, ok := privacyTierNames[p]; ok {
		return name
	}
	return "Unknown"
}

// IsValidPrivacyTier reports whether p is one of PrivacyTiers.
func IsValidPrivacyTier(p PrivacyTier) bool {
	_, ok := privacyTierNames[p]
	return ok
}

// Validation errors for values supplied directly by API callers.
var (
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidPrivacyTier = errors.New("invalid privacy tier")
)

// ValidateCategory returns an error naming the allowed values when s is not a category.
func ValidateCategory(s string) (Category, error) {
	c, ok := ParseCategory(s)
	if !ok {
		return "", fmt.Errorf("%w %q: allowed values are %s", ErrInvalidCategory, s, joinValues(Categories))
	}
	return c, nil
}

// ValidatePrivacyTier returns an error naming the allowed values when s is not a tier.
func ValidatePrivacyTier(s string) (PrivacyTier, error) {
	p := PrivacyTier(strings.ToLower(strings.TrimSpace(s)))
	if !IsValidPrivacyTier(p) {
		return "", fmt.Errorf("%w %q: allowed values are %s", ErrInvalidPrivacyTier, s, joinValues(PrivacyTiers))
	}
	return p, nil
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
