package sqlstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-wellness/internal/adapters/storage/sqlstore"
	"github.com/PabloGalante/farum-wellness/internal/app/achievements"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	store, err := sqlstore.Open(sqlstore.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	sqlDB, err := store.DB().DB()
	if err != nil {
		t.Fatalf("DB failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func level(v int) *int { return &v }

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := sqlstore.Open("oracle", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSessionsAndMessages(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	base := time.Now().UTC()

	sess := &domain.Session{ID: "s1", UserID: "u1", CreatedAt: base, UpdatedAt: base}
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	msgs := []*domain.Message{
		{ID: "m1", SessionID: "s1", UserID: "u1", Author: domain.RoleUser, Text: "I feel anxious", CreatedAt: base.Add(1 * time.Second)},
		{ID: "m2", SessionID: "s1", UserID: "u1", Author: domain.RoleBot, Text: "Let's breathe.", CreatedAt: base.Add(2 * time.Second)},
		{ID: "m3", SessionID: "s1", UserID: "u1", Author: domain.RoleUser, Text: "ok", CreatedAt: base.Add(3 * time.Second)},
	}
	for _, m := range msgs {
		if err := store.CreateMessage(ctx, m); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	if err := store.SetMessageEmotion(ctx, "s1", "m1", domain.CategoryAnxiety); err != nil {
		t.Fatalf("SetMessageEmotion failed: %v", err)
	}
	if err := store.SetMessageEmotion(ctx, "s1", "m2", domain.CategoryAnxiety); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bot message, got %v", err)
	}
	if err := store.SetMessageEmotion(ctx, "s1", "nope", domain.CategoryAnxiety); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all, err := store.ListMessages(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "m1" || all[2].ID != "m3" {
		t.Fatalf("expected oldest first, got %+v", all)
	}
	if all[0].Emotion == nil || *all[0].Emotion != domain.CategoryAnxiety {
		t.Fatalf("emotion not persisted: %+v", all[0])
	}
	if all[1].Emotion != nil {
		t.Fatalf("bot message carries emotion: %+v", all[1])
	}

	last, _ := store.ListMessages(ctx, "s1", 2)
	if len(last) != 2 || last[0].ID != "m2" || last[1].ID != "m3" {
		t.Fatalf("expected last two messages oldest first, got %+v", last)
	}

	n, err := store.CountUserChatMessages(ctx, "u1")
	if err != nil || n != 2 {
		t.Fatalf("CountUserChatMessages = %d, %v; want 2", n, err)
	}

	sess.UpdatedAt = base.Add(time.Minute)
	sess.Title = "renamed"
	if err := store.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	list, err := store.ListSessionsByUser(ctx, "u1", 10)
	if err != nil || len(list) != 1 || list[0].Title != "renamed" {
		t.Fatalf("unexpected sessions %+v, %v", list, err)
	}
	if err := store.UpdateSession(ctx, &domain.Session{ID: "ghost"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestRecentMoodLevelsSkipsNulls(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	base := time.Now().UTC()

	levels := []*int{level(1), level(2), nil, level(4), nil}
	for i, l := range levels {
		entry := &domain.MoodEntry{ID: domain.MoodEntryID(uuid.NewString()), UserID: "u1", Level: l, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.CreateMoodEntry(ctx, entry); err != nil {
			t.Fatalf("CreateMoodEntry failed: %v", err)
		}
	}

	got, err := store.RecentMoodLevels(ctx, "u1", 7)
	if err != nil {
		t.Fatalf("RecentMoodLevels failed: %v", err)
	}
	want := []int{4, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	count, _ := store.CountMoodEntries(ctx, "u1")
	if count != 5 {
		t.Fatalf("CountMoodEntries = %d, want 5", count)
	}

	moods, _ := store.ListMoodEntries(ctx, "u1", 2)
	if len(moods) != 2 || moods[0].Level != nil || *moods[1].Level != 4 {
		t.Fatalf("unexpected mood listing %+v", moods)
	}
}

func TestCreateBadgeConflictIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	badge := func() *domain.EarnedBadge {
		return &domain.EarnedBadge{
			ID:       domain.BadgeID(uuid.NewString()),
			UserID:   "u1",
			Type:     domain.BadgeFirstMood,
			Name:     "First Check-in",
			EarnedAt: time.Now().UTC(),
		}
	}

	created, err := store.CreateBadge(ctx, badge())
	if err != nil || !created {
		t.Fatalf("first CreateBadge = %v, %v", created, err)
	}
	created, err = store.CreateBadge(ctx, badge())
	if err != nil {
		t.Fatalf("duplicate CreateBadge returned error: %v", err)
	}
	if created {
		t.Fatalf("duplicate CreateBadge reported created")
	}

	has, err := store.HasBadge(ctx, "u1", domain.BadgeFirstMood)
	if err != nil || !has {
		t.Fatalf("HasBadge = %v, %v", has, err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := badge()
			b.Type = domain.BadgeWeekTracker
			ok, err := store.CreateBadge(ctx, b)
			if err != nil {
				t.Errorf("CreateBadge failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("expected one winner, got %d", winners)
	}

	list, _ := store.ListBadges(ctx, "u1")
	if len(list) != 2 {
		t.Fatalf("expected 2 badges, got %d", len(list))
	}
}

func TestEvaluatorOnSQLStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	eval := achievements.NewEvaluator(store, store, nil)

	for i := 0; i < 7; i++ {
		entry := &domain.MoodEntry{
			ID:        domain.MoodEntryID(uuid.NewString()),
			UserID:    "u1",
			Level:     level(4),
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := store.CreateMoodEntry(ctx, entry); err != nil {
			t.Fatalf("CreateMoodEntry failed: %v", err)
		}
	}

	granted, err := eval.Evaluate(ctx, "u1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	got := map[domain.BadgeType]bool{}
	for _, b := range granted {
		got[b.Type] = true
	}
	for _, want := range []domain.BadgeType{domain.BadgeFirstMood, domain.BadgeWeekTracker, domain.BadgePositiveVibes} {
		if !got[want] {
			t.Fatalf("expected %s, got %v", want, got)
		}
	}

	again, err := eval.Evaluate(ctx, "u1")
	if err != nil || len(again) != 0 {
		t.Fatalf("second Evaluate = %+v, %v", again, err)
	}

	users, err := store.ListActiveUsers(ctx, time.Now().Add(-time.Hour))
	if err != nil || len(users) != 1 || users[0] != "u1" {
		t.Fatalf("ListActiveUsers = %v, %v", users, err)
	}
}

func TestJournalEntriesMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	base := time.Now().UTC()

	for i, content := range []string{"first", "second"} {
		entry := &domain.JournalEntry{
			ID:        domain.JournalEntryID(uuid.NewString()),
			UserID:    "u1",
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.CreateJournalEntry(ctx, entry); err != nil {
			t.Fatalf("CreateJournalEntry failed: %v", err)
		}
	}

	entries, err := store.ListJournalEntriesByUser(ctx, "u1", 0)
	if err != nil || len(entries) != 2 || entries[0].Content != "second" {
		t.Fatalf("unexpected entries %+v, %v", entries, err)
	}
	n, _ := store.CountJournalEntries(ctx, "u1")
	if n != 2 {
		t.Fatalf("CountJournalEntries = %d, want 2", n)
	}
}
