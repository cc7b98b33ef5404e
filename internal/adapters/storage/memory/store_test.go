package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestBadgeStoreConcurrentCreateHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBadgeStore()

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := store.CreateBadge(ctx, &domain.EarnedBadge{
				UserID: "u1",
				Type:   domain.BadgeFirstMood,
			})
			if err != nil {
				t.Errorf("CreateBadge failed: %v", err)
				return
			}
			if created {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Fatalf("expected exactly one winner, got %d", got)
	}
	badges, _ := store.ListBadges(ctx, "u1")
	if len(badges) != 1 {
		t.Fatalf("expected 1 stored badge, got %d", len(badges))
	}
}

func TestRecentMoodLevelsSkipsNullsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournalStore()
	activity := memory.NewActivityStore(memory.NewMessageStore(), journal)

	levels := []*int{intPtr(1), nil, intPtr(2), intPtr(3), nil, intPtr(4)}
	for _, l := range levels {
		if err := journal.CreateMoodEntry(ctx, &domain.MoodEntry{UserID: "u1", Level: l}); err != nil {
			t.Fatalf("CreateMoodEntry failed: %v", err)
		}
	}

	got, err := activity.RecentMoodLevels(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("RecentMoodLevels failed: %v", err)
	}
	want := []int{4, 3, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	n, _ := activity.CountMoodEntries(ctx, "u1")
	if n != 6 {
		t.Fatalf("CountMoodEntries = %d, want 6 (null levels still count)", n)
	}
}

func TestCountUserChatMessagesIgnoresBotMessages(t *testing.T) {
	ctx := context.Background()
	messages := memory.NewMessageStore()
	activity := memory.NewActivityStore(messages, memory.NewJournalStore())

	msgs := []*domain.Message{
		{ID: "m1", SessionID: "s1", UserID: "u1", Author: domain.RoleUser, Text: "hi"},
		{ID: "m2", SessionID: "s1", UserID: "u1", Author: domain.RoleBot, Text: "hello"},
		{ID: "m3", SessionID: "s2", UserID: "u1", Author: domain.RoleUser, Text: "again"},
		{ID: "m4", SessionID: "s3", UserID: "u2", Author: domain.RoleUser, Text: "other"},
	}
	for _, m := range msgs {
		if err := messages.CreateMessage(ctx, m); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	n, _ := activity.CountUserChatMessages(ctx, "u1")
	if n != 2 {
		t.Fatalf("CountUserChatMessages = %d, want 2", n)
	}
}

func TestSetMessageEmotionRejectsBotMessages(t *testing.T) {
	ctx := context.Background()
	messages := memory.NewMessageStore()

	_ = messages.CreateMessage(ctx, &domain.Message{ID: "b1", SessionID: "s1", Author: domain.RoleBot})
	_ = messages.CreateMessage(ctx, &domain.Message{ID: "u1", SessionID: "s1", Author: domain.RoleUser})

	if err := messages.SetMessageEmotion(ctx, "s1", "b1", domain.CategoryNeutral); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bot message, got %v", err)
	}
	if err := messages.SetMessageEmotion(ctx, "s1", "missing", domain.CategoryNeutral); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := messages.SetMessageEmotion(ctx, "s1", "u1", domain.CategoryAnxiety); err != nil {
		t.Fatalf("SetMessageEmotion failed: %v", err)
	}

	msgs, _ := messages.ListMessages(ctx, "s1", 0)
	if msgs[0].Emotion != nil {
		t.Fatalf("bot message must not carry an emotion")
	}
	if msgs[1].Emotion == nil || *msgs[1].Emotion != domain.CategoryAnxiety {
		t.Fatalf("user message emotion not stored: %+v", msgs[1])
	}
}

func TestListActiveUsers(t *testing.T) {
	ctx := context.Background()
	messages := memory.NewMessageStore()
	journal := memory.NewJournalStore()
	activity := memory.NewActivityStore(messages, journal)

	now := time.Now()
	old := now.Add(-48 * time.Hour)

	_ = journal.CreateMoodEntry(ctx, &domain.MoodEntry{UserID: "recent-mood", CreatedAt: now})
	_ = journal.CreateMoodEntry(ctx, &domain.MoodEntry{UserID: "stale", CreatedAt: old})
	_ = journal.CreateJournalEntry(ctx, &domain.JournalEntry{UserID: "recent-journal", CreatedAt: now})
	_ = messages.CreateMessage(ctx, &domain.Message{ID: "m1", UserID: "recent-chat", Author: domain.RoleUser, CreatedAt: now})

	users, err := activity.ListActiveUsers(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListActiveUsers failed: %v", err)
	}
	want := []domain.UserID{"recent-chat", "recent-journal", "recent-mood"}
	if len(users) != len(want) {
		t.Fatalf("got %v, want %v", users, want)
	}
	for i := range want {
		if users[i] != want[i] {
			t.Fatalf("got %v, want %v", users, want)
		}
	}
}
