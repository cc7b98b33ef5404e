package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (FARUM_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: projectID is required for Firestore store", domain.ErrInvalidInput)
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

const (
	sessionsCollection = "sessions"
	messagesCollection = "messages"
	moodsCollection    = "mood_entries"
	journalCollection  = "journal_entries"
	usersCollection    = "users"
	badgesCollection   = "badges"
)

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection(sessionsCollection)
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(sessionID).Collection(messagesCollection)
}

func (s *Store) messageDoc(sessionID domain.SessionID, msgID domain.MessageID) *firestore.DocumentRef {
	return s.messagesCol(sessionID).Doc(string(msgID))
}

// badgeDoc is keyed by badge type, so a user can hold each type once.
func (s *Store) badgeDoc(userID domain.UserID, badgeType domain.BadgeType) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(string(userID)).Collection(badgesCollection).Doc(string(badgeType))
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func count(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result %T", res["all"])
	}
	return v.GetIntegerValue(), nil
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	UserID    string    `firestore:"user_id"`
	Title     string    `firestore:"title"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	SessionID string    `firestore:"session_id"`
	UserID    string    `firestore:"user_id"`
	Author    string    `firestore:"author"`
	Text      string    `firestore:"text"`
	Emotion   *string   `firestore:"emotion"`
	CreatedAt time.Time `firestore:"created_at"`
}

type moodDoc struct {
	UserID    string    `firestore:"user_id"`
	Level     *int64    `firestore:"level"`
	Note      string    `firestore:"note"`
	CreatedAt time.Time `firestore:"created_at"`
}

type journalDoc struct {
	UserID    string    `firestore:"user_id"`
	Title     string    `firestore:"title"`
	Content   string    `firestore:"content"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type badgeDoc struct {
	ID          string    `firestore:"id"`
	UserID      string    `firestore:"user_id"`
	BadgeType   string    `firestore:"badge_type"`
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	EarnedAt    time.Time `firestore:"earned_at"`
}

func (d *sessionDoc) toDomain(id string) *domain.Session {
	return &domain.Session{
		ID:        domain.SessionID(id),
		UserID:    domain.UserID(d.UserID),
		Title:     d.Title,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d *messageDoc) toDomain(id string) *domain.Message {
	msg := &domain.Message{
		ID:        domain.MessageID(id),
		SessionID: domain.SessionID(d.SessionID),
		UserID:    domain.UserID(d.UserID),
		Author:    domain.Role(d.Author),
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
	}
	if d.Emotion != nil {
		c := domain.Category(*d.Emotion)
		msg.Emotion = &c
	}
	return msg
}

func (d *moodDoc) toDomain(id string) *domain.MoodEntry {
	entry := &domain.MoodEntry{
		ID:        domain.MoodEntryID(id),
		UserID:    domain.UserID(d.UserID),
		Note:      d.Note,
		CreatedAt: d.CreatedAt,
	}
	if d.Level != nil {
		l := int(*d.Level)
		entry.Level = &l
	}
	return entry
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	doc := sessionDoc{
		UserID:    string(session.UserID),
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}

	_, err := s.sessionDoc(session.ID).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.sessionDoc(session.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: session.Title},
		{Path: "updated_at", Value: session.UpdatedAt},
	})
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}

	return doc.toDomain(string(id)), nil
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Session, error) {
	q := s.sessionsCol().Where("user_id", "==", string(userID)).OrderBy("updated_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.Session{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListSessionsByUser: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateMessage(ctx context.Context, msg *domain.Message) error {
	doc := messageDoc{
		SessionID: string(msg.SessionID),
		UserID:    string(msg.UserID),
		Author:    string(msg.Author),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
	if msg.Emotion != nil && msg.Author == domain.RoleUser {
		e := string(*msg.Emotion)
		doc.Emotion = &e
	}

	_, err := s.messageDoc(msg.SessionID, msg.ID).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore CreateMessage: %w", err)
	}
	return nil
}

func (s *Store) SetMessageEmotion(ctx context.Context, sessionID domain.SessionID, id domain.MessageID, category domain.Category) error {
	ref := s.messageDoc(sessionID, id)

	snap, err := ref.Get(ctx)
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("firestore SetMessageEmotion: %w", err)
	}

	author, err := snap.DataAt("author")
	if err != nil {
		return fmt.Errorf("firestore SetMessageEmotion decode: %w", err)
	}
	if author != string(domain.RoleUser) {
		return fmt.Errorf("%w: bot messages carry no emotion", domain.ErrInvalidInput)
	}

	if _, err := ref.Update(ctx, []firestore.Update{{Path: "emotion", Value: string(category)}}); err != nil {
		return fmt.Errorf("firestore SetMessageEmotion: %w", err)
	}
	return nil
}

// ListMessages returns the last limit messages of a session, oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	q := s.messagesCol(sessionID).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = q.LimitToLast(limit)
	}

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore ListMessages: %w", err)
	}

	out := make([]*domain.Message, 0, len(docs))
	for _, snap := range docs {
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}

// ─────────────────────────────────────────
// JournalStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateMoodEntry(ctx context.Context, entry *domain.MoodEntry) error {
	doc := moodDoc{
		UserID:    string(entry.UserID),
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt,
	}
	if entry.Level != nil {
		l := int64(*entry.Level)
		doc.Level = &l
	}

	if _, err := s.client.Collection(moodsCollection).Doc(string(entry.ID)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateMoodEntry: %w", err)
	}
	return nil
}

func (s *Store) ListMoodEntries(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MoodEntry, error) {
	q := s.client.Collection(moodsCollection).
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.MoodEntry{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListMoodEntries: %w", err)
		}

		var doc moodDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode moodDoc: %w", err)
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}

func (s *Store) CreateJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	doc := journalDoc{
		UserID:    string(entry.UserID),
		Title:     entry.Title,
		Content:   entry.Content,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}

	if _, err := s.client.Collection(journalCollection).Doc(string(entry.ID)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateJournalEntry: %w", err)
	}
	return nil
}

func (s *Store) ListJournalEntriesByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	q := s.client.Collection(journalCollection).
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.JournalEntry{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListJournalEntriesByUser: %w", err)
		}

		var doc journalDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode journalDoc: %w", err)
		}
		out = append(out, &domain.JournalEntry{
			ID:        domain.JournalEntryID(snap.Ref.ID),
			UserID:    domain.UserID(doc.UserID),
			Title:     doc.Title,
			Content:   doc.Content,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// ActivityStore implementation
// ─────────────────────────────────────────

func (s *Store) CountMoodEntries(ctx context.Context, userID domain.UserID) (int64, error) {
	n, err := count(ctx, s.client.Collection(moodsCollection).Where("user_id", "==", string(userID)))
	if err != nil {
		return 0, fmt.Errorf("firestore CountMoodEntries: %w", err)
	}
	return n, nil
}

func (s *Store) CountJournalEntries(ctx context.Context, userID domain.UserID) (int64, error) {
	n, err := count(ctx, s.client.Collection(journalCollection).Where("user_id", "==", string(userID)))
	if err != nil {
		return 0, fmt.Errorf("firestore CountJournalEntries: %w", err)
	}
	return n, nil
}

// CountUserChatMessages counts across every session through the messages
// collection group.
func (s *Store) CountUserChatMessages(ctx context.Context, userID domain.UserID) (int64, error) {
	q := s.client.CollectionGroup(messagesCollection).
		Where("user_id", "==", string(userID)).
		Where("author", "==", string(domain.RoleUser))

	n, err := count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("firestore CountUserChatMessages: %w", err)
	}
	return n, nil
}

// RecentMoodLevels walks the newest entries and skips those without a level.
func (s *Store) RecentMoodLevels(ctx context.Context, userID domain.UserID, limit int) ([]int, error) {
	iter := s.client.Collection(moodsCollection).
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	levels := []int{}
	for limit <= 0 || len(levels) < limit {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore RecentMoodLevels: %w", err)
		}

		var doc moodDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode moodDoc: %w", err)
		}
		if doc.Level != nil {
			levels = append(levels, int(*doc.Level))
		}
	}
	return levels, nil
}

func (s *Store) ListActiveUsers(ctx context.Context, since time.Time) ([]domain.UserID, error) {
	seen := map[string]struct{}{}

	queries := []firestore.Query{
		s.client.Collection(moodsCollection).Where("created_at", ">=", since).Select("user_id"),
		s.client.Collection(journalCollection).Where("created_at", ">=", since).Select("user_id"),
		s.client.CollectionGroup(messagesCollection).
			Where("author", "==", string(domain.RoleUser)).
			Where("created_at", ">=", since).
			Select("user_id"),
	}

	for _, q := range queries {
		iter := q.Documents(ctx)
		for {
			snap, err := iter.Next()
			if err != nil {
				if err == iterator.Done {
					break
				}
				iter.Stop()
				return nil, fmt.Errorf("firestore ListActiveUsers: %w", err)
			}
			if v, err := snap.DataAt("user_id"); err == nil {
				if id, ok := v.(string); ok && id != "" {
					seen[id] = struct{}{}
				}
			}
		}
		iter.Stop()
	}

	out := make([]domain.UserID, 0, len(seen))
	for id := range seen {
		out = append(out, domain.UserID(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ─────────────────────────────────────────
// BadgeStore implementation
// ─────────────────────────────────────────

func (s *Store) HasBadge(ctx context.Context, userID domain.UserID, badgeType domain.BadgeType) (bool, error) {
	_, err := s.badgeDoc(userID, badgeType).Get(ctx)
	if err != nil {
		if notFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("firestore HasBadge: %w", err)
	}
	return true, nil
}

// CreateBadge relies on Create failing with AlreadyExists when the user
// already holds the badge type; that outcome is a lost race, not an error.
func (s *Store) CreateBadge(ctx context.Context, badge *domain.EarnedBadge) (bool, error) {
	doc := badgeDoc{
		ID:          string(badge.ID),
		UserID:      string(badge.UserID),
		BadgeType:   string(badge.Type),
		Name:        badge.Name,
		Description: badge.Description,
		EarnedAt:    badge.EarnedAt,
	}

	_, err := s.badgeDoc(badge.UserID, badge.Type).Create(ctx, doc)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, fmt.Errorf("firestore CreateBadge: %w", err)
	}
	return true, nil
}

func (s *Store) ListBadges(ctx context.Context, userID domain.UserID) ([]*domain.EarnedBadge, error) {
	iter := s.client.Collection(usersCollection).Doc(string(userID)).Collection(badgesCollection).
		OrderBy("earned_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	out := []*domain.EarnedBadge{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListBadges: %w", err)
		}

		var doc badgeDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode badgeDoc: %w", err)
		}
		out = append(out, &domain.EarnedBadge{
			ID:          domain.BadgeID(doc.ID),
			UserID:      domain.UserID(doc.UserID),
			Type:        domain.BadgeType(doc.BadgeType),
			Name:        doc.Name,
			Description: doc.Description,
			EarnedAt:    doc.EarnedAt,
		})
	}
	return out, nil
}
