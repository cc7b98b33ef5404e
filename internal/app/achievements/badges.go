package achievements

import "github.com/PabloGalante/farum-wellness/internal/domain"

// Thresholds are fixed; changing them is a product decision, not configuration.
const (
	FirstMoodThreshold           = 1
	WeekTrackerThreshold         = 7
	FirstJournalThreshold        = 1
	JournalEnthusiastThreshold   = 10
	ConversationStarterThreshold = 25
	PositiveVibesWindow          = 7
	PositiveVibesMinAverage      = 4.0
)

// Definition is a static badge: a key, display text and a predicate over the
// user's activity.
type Definition struct {
	Type        domain.BadgeType
	Name        string
	Description string
	Qualifies   func(domain.ActivitySnapshot) bool
}

var definitions = []Definition{
	{
		Type:        domain.BadgeFirstMood,
		Name:        "First Check-in",
		Description: "Logged your first mood entry",
		Qualifies:   func(s domain.ActivitySnapshot) bool { return s.MoodEntries >= FirstMoodThreshold },
	},
	{
		Type:        domain.BadgeWeekTracker,
		Name:        "Week Tracker",
		Description: "Logged 7 mood entries",
		Qualifies:   func(s domain.ActivitySnapshot) bool { return s.MoodEntries >= WeekTrackerThreshold },
	},
	{
		Type:        domain.BadgeFirstJournal,
		Name:        "Dear Diary",
		Description: "Wrote your first journal entry",
		Qualifies:   func(s domain.ActivitySnapshot) bool { return s.JournalEntries >= FirstJournalThreshold },
	},
	{
		Type:        domain.BadgeJournalEnthusiast,
		Name:        "Journal Enthusiast",
		Description: "Wrote 10 journal entries",
		Qualifies:   func(s domain.ActivitySnapshot) bool { return s.JournalEntries >= JournalEnthusiastThreshold },
	},
	{
		Type:        domain.BadgeConversationStarter,
		Name:        "Conversation Starter",
		Description: "Sent 25 messages to Farum",
		Qualifies:   func(s domain.ActivitySnapshot) bool { return s.ChatMessages >= ConversationStarterThreshold },
	},
	{
		Type:        domain.BadgeWellnessWarrior,
		Name:        "Wellness Warrior",
		Description: "Tracked a mood, wrote in your journal and chatted with Farum",
		Qualifies: func(s domain.ActivitySnapshot) bool {
			return s.MoodEntries >= 1 && s.JournalEntries >= 1 && s.ChatMessages >= 1
		},
	},
	{
		Type:        domain.BadgePositiveVibes,
		Name:        "Positive Vibes",
		Description: "Averaged a mood of 4 or more over your last 7 check-ins",
		Qualifies: func(s domain.ActivitySnapshot) bool {
			return s.HasMoodAverage && s.RecentMoodAverage >= PositiveVibesMinAverage
		},
	},
}

// Definitions returns the badge table in evaluation order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// DefinitionFor looks up a badge by type.
func DefinitionFor(t domain.BadgeType) (Definition, bool) {
	for _, d := range definitions {
		if d.Type == t {
			return d, true
		}
	}
	return Definition{}, false
}
