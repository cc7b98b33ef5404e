package domain

import (
	"context"
	"time"
)

// SessionStore defines session's persistence
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	UpdateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	ListSessionsByUser(ctx context.Context, userID UserID, limit int) ([]*Session, error)
}

// MessageStore defines message's persistence
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *Message) error
	// SetMessageEmotion tags a user message once it has been classified.
	SetMessageEmotion(ctx context.Context, sessionID SessionID, id MessageID, category Category) error
	// ListMessages returns messages oldest first; limit <= 0 means all.
	ListMessages(ctx context.Context, sessionID SessionID, limit int) ([]*Message, error)
}

// JournalStore persists mood check-ins and journal entries.
type JournalStore interface {
	CreateMoodEntry(ctx context.Context, entry *MoodEntry) error
	ListMoodEntries(ctx context.Context, userID UserID, limit int) ([]*MoodEntry, error)
	CreateJournalEntry(ctx context.Context, entry *JournalEntry) error
	ListJournalEntriesByUser(ctx context.Context, userID UserID, limit int) ([]*JournalEntry, error)
}

// ActivityStore exposes the aggregates the achievement evaluator reads.
type ActivityStore interface {
	CountMoodEntries(ctx context.Context, userID UserID) (int64, error)
	CountJournalEntries(ctx context.Context, userID UserID) (int64, error)
	CountUserChatMessages(ctx context.Context, userID UserID) (int64, error)
	// RecentMoodLevels returns up to limit non-null levels, most recent first.
	RecentMoodLevels(ctx context.Context, userID UserID, limit int) ([]int, error)
	// ListActiveUsers returns users with any mood, journal or chat activity since t.
	ListActiveUsers(ctx context.Context, since time.Time) ([]UserID, error)
}

// BadgeStore persists earned badges. CreateBadge must tolerate concurrent
// duplicates: the loser of a (user, type) race gets created == false and no error.
type BadgeStore interface {
	HasBadge(ctx context.Context, userID UserID, badgeType BadgeType) (bool, error)
	CreateBadge(ctx context.Context, badge *EarnedBadge) (created bool, err error)
	ListBadges(ctx context.Context, userID UserID) ([]*EarnedBadge, error)
}

// Emitter pushes bot messages to the presentation layer as they are produced.
type Emitter interface {
	Emit(ctx context.Context, msg *Message)
}
