package domain

type MoodEntryID string

// JournalEntryID identifies a journal entry
type JournalEntryID string

const (
	MinMoodLevel = 1
	MaxMoodLevel = 5
)

// MoodEntry is one mood check-in. Level may be nil when the user only left a note.
type MoodEntry struct {
	ID        MoodEntryID `json:"id"`
	UserID    UserID      `json:"user_id"`
	Level     *int        `json:"level,omitempty"`
	Note      string      `json:"note,omitempty"`
	CreatedAt Timestamp   `json:"created_at"`
}

// JournalEntry is a free-form reflection written by the user.
type JournalEntry struct {
	ID     JournalEntryID `json:"id"`
	UserID UserID         `json:"user_id"`

	Title   string `json:"title"`
	Content string `json:"content"`

	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}
