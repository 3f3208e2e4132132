package models

// Counselor is one volunteer counselor in the roster.
type Counselor struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Specializations []Category `json:"specializations" yaml:"specializations"`
	YearsExperience int        `json:"years_experience" yaml:"years_experience"`
	Capacity        int        `json:"capacity" yaml:"capacity"`
	CurrentLoad     int        `json:"current_load" yaml:"current_load"`
	Bio             string     `json:"bio,omitempty" yaml:"bio"`
}

// Specializes reports exact membership of c in the counselor's specialization set.
func (c Counselor) Specializes(category Category) bool {
	for _, s := range c.Specializations {
		if s == category {
			return true
		}
	}
	return false
}

// HabitFrequency is how often a habit is practiced.
type HabitFrequency string

const (
	HabitFrequencyDaily    HabitFrequency = "daily"
	HabitFrequencyWeekdays HabitFrequency = "weekdays"
	HabitFrequencyWeekly   HabitFrequency = "weekly"
)

// HabitRecord is one evidence-based habit in the library.
type HabitRecord struct {
	ID              string         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description" yaml:"description"`
	Rationale       string         `json:"rationale" yaml:"rationale"`
	Frequency       HabitFrequency `json:"frequency" yaml:"frequency"`
	DurationMinutes int            `json:"duration_minutes" yaml:"duration_minutes"`
	DifficultyLevel int            `json:"difficulty_level" yaml:"difficulty_level"`
}

// GroupSize bounds how many members a support group admits.
type GroupSize string

const (
	GroupSizeSmall  GroupSize = "small"  // 4-6 people
	GroupSizeMedium GroupSize = "medium" // 7-10 people
	GroupSizeLarge  GroupSize = "large"  // 11-15 people
)

var groupSizeCapacity = map[GroupSize]int{
	GroupSizeSmall:  6,
	GroupSizeMedium: 10,
	GroupSizeLarge:  15,
}

// Capacity returns the member cap for the size; unknown sizes admit nobody.
func (g GroupSize) Capacity() int {
	return groupSizeCapacity[g]
}

// SupportGroup is an anonymous peer support group.
type SupportGroup struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Category       Category  `json:"category" yaml:"category"`
	Size           GroupSize `json:"size" yaml:"size"`
	CurrentMembers int       `json:"current_members" yaml:"current_members"`
	Style          string    `json:"style" yaml:"style"`
	MeetingTime    string    `json:"meeting_time" yaml:"meeting_time"`
	Description    string    `json:"description,omitempty" yaml:"description"`
	Facilitator    string    `json:"facilitator,omitempty" yaml:"facilitator"`
}

// HasOpening reports whether the group is below its size cap.
func (g SupportGroup) HasOpening() bool {
	return g.CurrentMembers < g.Size.Capacity()
}
