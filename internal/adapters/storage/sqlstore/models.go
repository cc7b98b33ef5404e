package sqlstore

import (
	"time"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type sessionRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"not null;index;size:128"`
	Title     string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

func (sessionRow) TableName() string { return "chat_sessions" }

type messageRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	SessionID string    `gorm:"not null;index;size:64"`
	UserID    string    `gorm:"not null;index:idx_message_user_author;size:128"`
	Author    string    `gorm:"not null;index:idx_message_user_author;size:16"`
	Text      string    `gorm:"type:text"`
	Emotion   *string   `gorm:"size:32"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (messageRow) TableName() string { return "chat_messages" }

type moodRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"not null;index;size:128"`
	Level     *int      `gorm:"check:level IS NULL OR (level >= 1 AND level <= 5)"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (moodRow) TableName() string { return "mood_entries" }

type journalRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"not null;index;size:128"`
	Title     string    `gorm:"size:255"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (journalRow) TableName() string { return "journal_entries" }

// badgeRow carries the (user_id, badge_type) unique index that makes badge
// grants race-safe across processes.
type badgeRow struct {
	ID          string    `gorm:"primaryKey;size:64"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_badge_user_type;size:128"`
	BadgeType   string    `gorm:"not null;uniqueIndex:idx_badge_user_type;size:64"`
	Name        string    `gorm:"size:128"`
	Description string    `gorm:"type:text"`
	EarnedAt    time.Time `gorm:"not null"`
}

func (badgeRow) TableName() string { return "earned_badges" }

func allModels() []any {
	return []any{&sessionRow{}, &messageRow{}, &moodRow{}, &journalRow{}, &badgeRow{}}
}

func toSessionRow(s *domain.Session) *sessionRow {
	return &sessionRow{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r *sessionRow) toDomain() *domain.Session {
	return &domain.Session{
		ID:        domain.SessionID(r.ID),
		UserID:    domain.UserID(r.UserID),
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toMessageRow(m *domain.Message) *messageRow {
	row := &messageRow{
		ID:        string(m.ID),
		SessionID: string(m.SessionID),
		UserID:    string(m.UserID),
		Author:    string(m.Author),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
	if m.Emotion != nil && m.Author == domain.RoleUser {
		e := string(*m.Emotion)
		row.Emotion = &e
	}
	return row
}

func (r *messageRow) toDomain() *domain.Message {
	msg := &domain.Message{
		ID:        domain.MessageID(r.ID),
		SessionID: domain.SessionID(r.SessionID),
		UserID:    domain.UserID(r.UserID),
		Author:    domain.Role(r.Author),
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
	if r.Emotion != nil {
		c := domain.Category(*r.Emotion)
		msg.Emotion = &c
	}
	return msg
}

func (r *moodRow) toDomain() *domain.MoodEntry {
	return &domain.MoodEntry{
		ID:        domain.MoodEntryID(r.ID),
		UserID:    domain.UserID(r.UserID),
		Level:     r.Level,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

func (r *journalRow) toDomain() *domain.JournalEntry {
	return &domain.JournalEntry{
		ID:        domain.JournalEntryID(r.ID),
		UserID:    domain.UserID(r.UserID),
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *badgeRow) toDomain() *domain.EarnedBadge {
	return &domain.EarnedBadge{
		ID:          domain.BadgeID(r.ID),
		UserID:      domain.UserID(r.UserID),
		Type:        domain.BadgeType(r.BadgeType),
		Name:        r.Name,
		Description: r.Description,
		EarnedAt:    r.EarnedAt,
	}
}
