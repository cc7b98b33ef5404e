package domain

type BadgeID string

// BadgeType is the stable key of a badge definition.
type BadgeType string

const (
	BadgeFirstMood           BadgeType = "first_mood"
	BadgeWeekTracker         BadgeType = "week_tracker"
	BadgeFirstJournal        BadgeType = "first_journal"
	BadgeJournalEnthusiast   BadgeType = "journal_enthusiast"
	BadgeConversationStarter BadgeType = "conversation_starter"
	BadgeWellnessWarrior     BadgeType = "wellness_warrior"
	BadgePositiveVibes       BadgeType = "positive_vibes"
)

// EarnedBadge records that a user satisfied a badge definition.
// At most one exists per (UserID, Type).
type EarnedBadge struct {
	ID          BadgeID   `json:"id"`
	UserID      UserID    `json:"user_id"`
	Type        BadgeType `json:"badge_type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    Timestamp `json:"earned_at"`
}

// ActivitySnapshot is computed fresh for every evaluation and never stored.
type ActivitySnapshot struct {
	MoodEntries    int64 `json:"mood_entries"`
	JournalEntries int64 `json:"journal_entries"`
	ChatMessages   int64 `json:"chat_messages"`

	// RecentMoodAverage is only meaningful when HasMoodAverage is true.
	RecentMoodAverage float64 `json:"recent_mood_average"`
	HasMoodAverage    bool    `json:"has_mood_average"`
}
