package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const (
	DefaultJournalLimit = 20
	DefaultMoodLimit    = 30
)

// AchievementChecker grants badges after user activity.
type AchievementChecker interface {
	Evaluate(ctx context.Context, userID domain.UserID) ([]*domain.EarnedBadge, error)
}

// Service records mood check-ins and journal entries
type Service struct {
	store        domain.JournalStore
	achievements AchievementChecker
	now          func() time.Time
}

// NewService creates a journal service from a JournalStore. achievements may
// be nil, in which case no badges are evaluated after writes.
func NewService(store domain.JournalStore, achievements AchievementChecker) *Service {
	return &Service{
		store:        store,
		achievements: achievements,
		now:          time.Now,
	}
}

type RecordMoodInput struct {
	UserID domain.UserID
	Level  *int
	Note   string
}

type RecordMoodOutput struct {
	Entry     *domain.MoodEntry
	NewBadges []*domain.EarnedBadge
}

// RecordMood stores a check-in and evaluates achievements. The level is
// optional; when given it must be within 1..5.
func (s *Service) RecordMood(ctx context.Context, in RecordMoodInput) (*RecordMoodOutput, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if in.Level != nil && (*in.Level < domain.MinMoodLevel || *in.Level > domain.MaxMoodLevel) {
		return nil, fmt.Errorf("%w: mood level must be between %d and %d", domain.ErrInvalidInput, domain.MinMoodLevel, domain.MaxMoodLevel)
	}

	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)

	entry := &domain.MoodEntry{
		ID:        domain.MoodEntryID(uuid.NewString()),
		UserID:    in.UserID,
		Level:     in.Level,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: s.now(),
	}

	if err := s.store.CreateMoodEntry(ctx, entry); err != nil {
		log.Error("failed to record mood", "error", err)
		return nil, fmt.Errorf("record mood: %w", err)
	}
	log.Info("mood recorded", "entry_id", entry.ID)

	badges, err := s.evaluate(ctx, in.UserID)
	return &RecordMoodOutput{Entry: entry, NewBadges: badges}, err
}

type WriteJournalInput struct {
	UserID  domain.UserID
	Title   string
	Content string
}

type WriteJournalOutput struct {
	Entry     *domain.JournalEntry
	NewBadges []*domain.EarnedBadge
}

// WriteJournalEntry stores a journal entry and evaluates achievements.
func (s *Service) WriteJournalEntry(ctx context.Context, in WriteJournalInput) (*WriteJournalOutput, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: journal content is required", domain.ErrInvalidInput)
	}

	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)

	now := s.now()
	entry := &domain.JournalEntry{
		ID:        domain.JournalEntryID(uuid.NewString()),
		UserID:    in.UserID,
		Title:     strings.TrimSpace(in.Title),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateJournalEntry(ctx, entry); err != nil {
		log.Error("failed to write journal entry", "error", err)
		return nil, fmt.Errorf("write journal entry: %w", err)
	}
	log.Info("journal entry written", "entry_id", entry.ID)

	badges, err := s.evaluate(ctx, in.UserID)
	return &WriteJournalOutput{Entry: entry, NewBadges: badges}, err
}

// evaluate runs achievements after a successful write. Its failure never
// undoes the write.
func (s *Service) evaluate(ctx context.Context, userID domain.UserID) ([]*domain.EarnedBadge, error) {
	if s.achievements == nil {
		return nil, nil
	}
	badges, err := s.achievements.Evaluate(ctx, userID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("achievement evaluation failed", "user_id", userID, "error", err)
		if !domain.IsPersistenceError(err) {
			err = &domain.PersistenceError{Op: "evaluate_achievements", Err: err}
		}
		return badges, err
	}
	return badges, nil
}

// GetUserJournal returns the last `limit` journal entries for a user
// If limit <= 0, a reasonable default value is used.
func (s *Service) GetUserJournal(
	ctx context.Context,
	userID domain.UserID,
	limit int,
) ([]*domain.JournalEntry, error) {

	if s.store == nil {
		return []*domain.JournalEntry{}, nil
	}

	if limit <= 0 {
		limit = DefaultJournalLimit
	}

	return s.store.ListJournalEntriesByUser(ctx, userID, limit)
}

// ListMoods returns the last `limit` mood entries for a user, most recent first.
func (s *Service) ListMoods(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MoodEntry, error) {
	if s.store == nil {
		return []*domain.MoodEntry{}, nil
	}

	if limit <= 0 {
		limit = DefaultMoodLimit
	}

	return s.store.ListMoodEntries(ctx, userID, limit)
}
