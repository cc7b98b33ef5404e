// Package sqlstore implements the persistence ports on a relational database
// through gorm. Both sqlite and postgres are supported.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported sql driver %q", domain.ErrInvalidInput, driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	return New(db)
}

// New wraps an open connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ---------- Sessions ----------

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	if err := s.db.WithContext(ctx).Create(toSessionRow(session)).Error; err != nil {
		return fmt.Errorf("create session %s: %w", session.ID, err)
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	res := s.db.WithContext(ctx).
		Model(&sessionRow{}).
		Where("id = ?", string(session.ID)).
		Updates(map[string]any{
			"title":      session.Title,
			"updated_at": session.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update session %s: %w", session.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("id = ?", string(id)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Session, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", string(userID)).Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []sessionRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]*domain.Session, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// ---------- Messages ----------

func (s *Store) CreateMessage(ctx context.Context, msg *domain.Message) error {
	if err := s.db.WithContext(ctx).Create(toMessageRow(msg)).Error; err != nil {
		return fmt.Errorf("create message %s: %w", msg.ID, err)
	}
	return nil
}

func (s *Store) SetMessageEmotion(ctx context.Context, sessionID domain.SessionID, id domain.MessageID, category domain.Category) error {
	var row messageRow
	err := s.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", string(id), string(sessionID)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get message %s: %w", id, err)
	}
	if row.Author != string(domain.RoleUser) {
		return fmt.Errorf("%w: bot messages carry no emotion", domain.ErrInvalidInput)
	}

	if err := s.db.WithContext(ctx).
		Model(&messageRow{}).
		Where("id = ?", string(id)).
		Update("emotion", string(category)).Error; err != nil {
		return fmt.Errorf("set emotion on %s: %w", id, err)
	}
	return nil
}

// ListMessages returns the last limit messages of a session, oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	q := s.db.WithContext(ctx).Where("session_id = ?", string(sessionID)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []messageRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]*domain.Message, len(rows))
	for i := range rows {
		out[len(rows)-1-i] = rows[i].toDomain()
	}
	return out, nil
}

// ---------- Journal ----------

func (s *Store) CreateMoodEntry(ctx context.Context, entry *domain.MoodEntry) error {
	row := &moodRow{
		ID:        string(entry.ID),
		UserID:    string(entry.UserID),
		Level:     entry.Level,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create mood entry: %w", err)
	}
	return nil
}

func (s *Store) ListMoodEntries(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MoodEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", string(userID)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []moodRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}

	out := make([]*domain.MoodEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) CreateJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	row := &journalRow{
		ID:        string(entry.ID),
		UserID:    string(entry.UserID),
		Title:     entry.Title,
		Content:   entry.Content,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create journal entry: %w", err)
	}
	return nil
}

func (s *Store) ListJournalEntriesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", string(userID)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []journalRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}

	out := make([]*domain.JournalEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// ---------- Activity ----------

func (s *Store) CountMoodEntries(ctx context.Context, userID domain.UserID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&moodRow{}).Where("user_id = ?", string(userID)).Count(&n).Error
	return n, err
}

func (s *Store) CountJournalEntries(ctx context.Context, userID domain.UserID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&journalRow{}).Where("user_id = ?", string(userID)).Count(&n).Error
	return n, err
}

func (s *Store) CountUserChatMessages(ctx context.Context, userID domain.UserID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&messageRow{}).
		Where("user_id = ? AND author = ?", string(userID), string(domain.RoleUser)).
		Count(&n).Error
	return n, err
}

func (s *Store) RecentMoodLevels(ctx context.Context, userID domain.UserID, limit int) ([]int, error) {
	q := s.db.WithContext(ctx).
		Model(&moodRow{}).
		Where("user_id = ? AND level IS NOT NULL", string(userID)).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	levels := []int{}
	if err := q.Pluck("level", &levels).Error; err != nil {
		return nil, fmt.Errorf("recent mood levels: %w", err)
	}
	return levels, nil
}

func (s *Store) ListActiveUsers(ctx context.Context, since time.Time) ([]domain.UserID, error) {
	seen := map[string]struct{}{}

	queries := []*gorm.DB{
		s.db.WithContext(ctx).Model(&moodRow{}).Where("created_at >= ?", since),
		s.db.WithContext(ctx).Model(&journalRow{}).Where("created_at >= ?", since),
		s.db.WithContext(ctx).Model(&messageRow{}).Where("created_at >= ? AND author = ?", since, string(domain.RoleUser)),
	}
	for _, q := range queries {
		var ids []string
		if err := q.Distinct("user_id").Pluck("user_id", &ids).Error; err != nil {
			return nil, fmt.Errorf("list active users: %w", err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	out := make([]domain.UserID, 0, len(seen))
	for id := range seen {
		out = append(out, domain.UserID(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ---------- Badges ----------

func (s *Store) HasBadge(ctx context.Context, userID domain.UserID, badgeType domain.BadgeType) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&badgeRow{}).
		Where("user_id = ? AND badge_type = ?", string(userID), string(badgeType)).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("has badge: %w", err)
	}
	return n > 0, nil
}

// CreateBadge inserts the badge unless the user already holds that type. A
// conflict on the unique index means another writer won; created is false.
func (s *Store) CreateBadge(ctx context.Context, badge *domain.EarnedBadge) (bool, error) {
	row := &badgeRow{
		ID:          string(badge.ID),
		UserID:      string(badge.UserID),
		BadgeType:   string(badge.Type),
		Name:        badge.Name,
		Description: badge.Description,
		EarnedAt:    badge.EarnedAt,
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_type"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, fmt.Errorf("create badge %s: %w", badge.Type, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ListBadges(ctx context.Context, userID domain.UserID) ([]*domain.EarnedBadge, error) {
	var rows []badgeRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", string(userID)).
		Order("earned_at ASC, badge_type ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}

	out := make([]*domain.EarnedBadge, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
