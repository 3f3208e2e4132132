package catalog

import "github.com/BTreeMap/NimaCare/internal/models"

var defaultCounselors = []models.Counselor{
	{
		ID:              "therapist_001",
		Name:            "Dr. Sarah Johnson",
		Specializations: []models.Category{models.CategoryAnxiety, models.CategoryDepression},
		YearsExperience: 8,
		Capacity:        10,
		CurrentLoad:     3,
		Bio:             "Licensed psychologist specializing in anxiety and depression.",
	},
	{
		ID:              "therapist_002",
		Name:            "Dr. Michael Chen",
		Specializations: []models.Category{models.CategoryTrauma},
		YearsExperience: 12,
		Capacity:        8,
		CurrentLoad:     2,
		Bio:             "Trauma specialist with focus on PTSD and recovery.",
	},
	{
		ID:              "therapist_003",
		Name:            "Dr. Emily Rodriguez",
		Specializations: []models.Category{models.CategoryCareer, models.CategoryAnxiety},
		YearsExperience: 6,
		Capacity:        12,
		CurrentLoad:     5,
		Bio:             "Counseling psychologist helping professionals with burnout, career transitions and workplace stress.",
	},
	{
		ID:              "therapist_004",
		Name:            "James Okafor, LMFT",
		Specializations: []models.Category{models.CategoryRelationships, models.CategoryGrief},
		YearsExperience: 10,
		Capacity:        9,
		CurrentLoad:     4,
		Bio:             "Marriage and family therapist supporting couples, families and people working through loss.",
	},
	{
		ID:              "therapist_005",
		Name:            "Dr. Aisha Rahman",
		Specializations: []models.Category{models.CategoryAddiction, models.CategoryDepression},
		YearsExperience: 9,
		Capacity:        10,
		CurrentLoad:     6,
		Bio:             "Addiction medicine specialist with a harm-reduction approach.",
	},
	{
		ID:              "therapist_006",
		Name:            "Daniel Kim, LCSW",
		Specializations: []models.Category{models.CategoryCareer, models.CategoryRelationships},
		YearsExperience: 4,
		Capacity:        8,
		CurrentLoad:     2,
		Bio:             "Clinical social worker focused on work-life balance and early-career stress.",
	},
}

var defaultHabits = map[models.Category][]models.HabitRecord{
	models.CategoryAnxiety: {
		{ID: "habit_anx_breathing", Name: "5-minute box breathing", Description: "Inhale 4s, hold 4s, exhale 4s, hold 4s.", Rationale: "Slow breathing calms the body's stress response.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 5, DifficultyLevel: 1},
		{ID: "habit_anx_worry_window", Name: "Scheduled worry time", Description: "Write worries down during one 10-minute window each day.", Rationale: "Containing worry to a set time reduces rumination.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 10, DifficultyLevel: 2},
		{ID: "habit_anx_grounding", Name: "5-4-3-2-1 grounding", Description: "Name 5 things you see, 4 you hear, 3 you feel, 2 you smell, 1 you taste.", Rationale: "Grounding pulls attention back to the present moment.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 3, DifficultyLevel: 1},
	},
	models.CategoryDepression: {
		{ID: "habit_dep_walk", Name: "10-minute morning walk", Description: "Walk outside for sunlight exposure and movement.", Rationale: "Light and movement lift mood and regulate sleep.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 10, DifficultyLevel: 1},
		{ID: "habit_dep_gratitude", Name: "Three good things", Description: "Write down three things that went okay today.", Rationale: "Noticing small positives counters negative bias.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 5, DifficultyLevel: 1},
		{ID: "habit_dep_activity", Name: "One small planned activity", Description: "Schedule one enjoyable or meaningful activity each day.", Rationale: "Behavioral activation rebuilds motivation through action.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 15, DifficultyLevel: 2},
	},
	models.CategoryTrauma: {
		{ID: "habit_tra_safe_place", Name: "Safe place visualization", Description: "Picture a place where you feel calm and safe, in detail.", Rationale: "Visualization builds a reliable way to self-soothe.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 5, DifficultyLevel: 1},
		{ID: "habit_tra_body_scan", Name: "Gentle body scan", Description: "Notice sensations from head to toe without judging them.", Rationale: "Body awareness helps recognize and settle triggers.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 10, DifficultyLevel: 2},
		{ID: "habit_tra_sleep_routine", Name: "Consistent wind-down routine", Description: "Same calming steps at the same time each night.", Rationale: "Predictable routines restore a sense of safety and sleep.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 15, DifficultyLevel: 1},
	},
	models.CategoryRelationships: {
		{ID: "habit_rel_check_in", Name: "Daily connection check-in", Description: "Ask someone close one open question and really listen.", Rationale: "Small moments of attention strengthen bonds.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 10, DifficultyLevel: 1},
		{ID: "habit_rel_i_statements", Name: "Practice I-statements", Description: "Rephrase one complaint as \"I feel ... when ...\".", Rationale: "I-statements lower defensiveness in conflict.", Frequency: models.HabitFrequencyWeekdays, DurationMinutes: 5, DifficultyLevel: 2},
		{ID: "habit_rel_appreciation", Name: "Share one appreciation", Description: "Tell someone one specific thing you value about them.", Rationale: "Expressed appreciation builds goodwill.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 2, DifficultyLevel: 1},
	},
	models.CategoryCareer: {
		{ID: "habit_car_reflection", Name: "End-of-day reflection", Description: "Write down one win and one thing you learned at work today.", Rationale: "Reflection reconnects daily work with a sense of progress.", Frequency: models.HabitFrequencyWeekdays, DurationMinutes: 5, DifficultyLevel: 1},
		{ID: "habit_car_skills", Name: "Skills development time", Description: "Spend focused time on a skill you want to grow.", Rationale: "Investing in growth restores meaning and a sense of direction.", Frequency: models.HabitFrequencyWeekly, DurationMinutes: 30, DifficultyLevel: 2},
		{ID: "habit_car_boundary", Name: "Work-life boundary ritual", Description: "Close work with a fixed ritual: tidy your desk, close the laptop, change clothes.", Rationale: "A clear boundary helps the mind switch off and prevents burnout.", Frequency: models.HabitFrequencyWeekdays, DurationMinutes: 5, DifficultyLevel: 1},
	},
	models.CategoryGrief: {
		{ID: "habit_gri_memory", Name: "Memory journaling", Description: "Write about a memory of the person or thing you lost.", Rationale: "Expressing grief helps process it rather than hold it in.", Frequency: models.HabitFrequencyWeekly, DurationMinutes: 15, DifficultyLevel: 2},
		{ID: "habit_gri_reach_out", Name: "Reach out to one person", Description: "Text or call someone who supports you.", Rationale: "Connection eases the isolation of loss.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 5, DifficultyLevel: 1},
		{ID: "habit_gri_self_care", Name: "Basic self-care check", Description: "Check that you ate, drank water and rested today.", Rationale: "Grief drains energy; basics keep you steady.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 2, DifficultyLevel: 1},
	},
	models.CategoryAddiction: {
		{ID: "habit_add_urge_surfing", Name: "Urge surfing", Description: "When a craving hits, notice it rise and fall without acting on it.", Rationale: "Cravings pass; observing them weakens their pull.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 5, DifficultyLevel: 2},
		{ID: "habit_add_trigger_log", Name: "Trigger log", Description: "Note when, where and why cravings showed up.", Rationale: "Knowing triggers makes them easier to plan around.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 5, DifficultyLevel: 1},
		{ID: "habit_add_support_call", Name: "Daily support contact", Description: "Check in with a sponsor, friend or group member.", Rationale: "Accountability and connection protect recovery.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 10, DifficultyLevel: 1},
	},
	models.CategoryGeneral: {
		{ID: "habit_gen_breathing", Name: "5-minute breathing exercise", Description: "Box breathing: inhale 4s, hold 4s, exhale 4s, hold 4s.", Rationale: "A quick reset for stress at any point in the day.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 5, DifficultyLevel: 1},
		{ID: "habit_gen_walk", Name: "10-minute walk", Description: "A short walk outside, ideally in daylight.", Rationale: "Movement and light improve mood and energy.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 10, DifficultyLevel: 1},
		{ID: "habit_gen_wind_down", Name: "Evening wind-down routine", Description: "15 minutes before bed to decompress and reflect.", Rationale: "A calm evening improves sleep and resilience.", Frequency: models.HabitFrequencyDaily, DurationMinutes: 15, DifficultyLevel: 1},
	},
}

var defaultGroups = map[models.Category][]models.SupportGroup{
	models.CategoryDepression: {
		{ID: "dep_group_001", Name: "Hope & Healing Circle", Category: models.CategoryDepression, Size: models.GroupSizeMedium, CurrentMembers: 8, Style: "balanced", MeetingTime: "Mondays 7pm EST", Description: "Supportive space for those navigating depression. Focus on small wins and mutual encouragement.", Facilitator: "Peer-led with licensed therapist"},
		{ID: "dep_group_002", Name: "Rising Together", Category: models.CategoryDepression, Size: models.GroupSizeSmall, CurrentMembers: 5, Style: "quiet", MeetingTime: "Fridays 8pm EST", Description: "Intimate group for quiet reflection and gentle support.", Facilitator: "Peer-led"},
	},
	models.CategoryAnxiety: {
		{ID: "anx_group_001", Name: "Calm Minds Collective", Category: models.CategoryAnxiety, Size: models.GroupSizeMedium, CurrentMembers: 9, Style: "balanced", MeetingTime: "Tuesdays 7pm EST", Description: "Practice anxiety management techniques together.", Facilitator: "Licensed therapist facilitated"},
		{ID: "anx_group_002", Name: "Worry Warriors", Category: models.CategoryAnxiety, Size: models.GroupSizeLarge, CurrentMembers: 12, Style: "active", MeetingTime: "Thursdays 8pm EST", Description: "Active group tackling anxiety together.", Facilitator: "Peer-led"},
	},
	models.CategoryCareer: {
		{ID: "car_group_001", Name: "Career Transition Support", Category: models.CategoryCareer, Size: models.GroupSizeMedium, CurrentMembers: 7, Style: "active", MeetingTime: "Wednesdays 6pm EST", Description: "For professionals navigating career changes, burnout, or finding purpose in work.", Facilitator: "Career coach facilitated"},
		{ID: "car_group_002", Name: "Work-Life Balance Circle", Category: models.CategoryCareer, Size: models.GroupSizeSmall, CurrentMembers: 6, Style: "balanced", MeetingTime: "Sundays 2pm EST", Description: "Small group focused on sustainable work habits and preventing burnout.", Facilitator: "Peer-led"},
	},
	models.CategoryTrauma: {
		{ID: "tra_group_001", Name: "Healing Paths", Category: models.CategoryTrauma, Size: models.GroupSizeSmall, CurrentMembers: 5, Style: "quiet", MeetingTime: "Thursdays 7pm EST", Description: "Safe, gentle space for trauma survivors. Share at your own pace.", Facilitator: "Trauma-informed therapist"},
	},
	models.CategoryGrief: {
		{ID: "gri_group_001", Name: "Together in Loss", Category: models.CategoryGrief, Size: models.GroupSizeMedium, CurrentMembers: 8, Style: "balanced", MeetingTime: "Saturdays 10am EST", Description: "Compassionate support for those grieving.", Facilitator: "Grief counselor facilitated"},
	},
	models.CategoryAddiction: {
		{ID: "add_group_001", Name: "Recovery Circle", Category: models.CategoryAddiction, Size: models.GroupSizeMedium, CurrentMembers: 10, Style: "active", MeetingTime: "Mondays & Thursdays 8pm EST", Description: "Active recovery support. Accountability and celebration of milestones.", Facilitator: "Recovery specialist"},
	},
	models.CategoryGeneral: {
		{ID: "gen_group_001", Name: "Mental Wellness Circle", Category: models.CategoryGeneral, Size: models.GroupSizeLarge, CurrentMembers: 14, Style: "balanced", MeetingTime: "Wednesdays 7pm EST", Description: "Open to all. Share whatever's on your mind in a judgment-free space.", Facilitator: "Peer-led"},
		{ID: "gen_group_002", Name: "Young Professionals Support", Category: models.CategoryGeneral, Size: models.GroupSizeMedium, CurrentMembers: 9, Style: "active", MeetingTime: "Sundays 7pm EST", Description: "For young professionals navigating life, relationships, and careers.", Facilitator: "Peer-led"},
	},
}
