package achievements_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-wellness/internal/app/achievements"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type fixture struct {
	messages *memory.MessageStore
	journal  *memory.JournalStore
	badges   *memory.BadgeStore
	eval     *achievements.Evaluator
	seq      int
}

func newFixture() *fixture {
	messages := memory.NewMessageStore()
	journal := memory.NewJournalStore()
	badges := memory.NewBadgeStore()
	return &fixture{
		messages: messages,
		journal:  journal,
		badges:   badges,
		eval:     achievements.NewEvaluator(memory.NewActivityStore(messages, journal), badges, nil),
	}
}

func (f *fixture) mood(t *testing.T, user domain.UserID, level *int) {
	t.Helper()
	if err := f.journal.CreateMoodEntry(context.Background(), &domain.MoodEntry{UserID: user, Level: level, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateMoodEntry failed: %v", err)
	}
}

func (f *fixture) entry(t *testing.T, user domain.UserID) {
	t.Helper()
	if err := f.journal.CreateJournalEntry(context.Background(), &domain.JournalEntry{UserID: user, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("CreateJournalEntry failed: %v", err)
	}
}

func (f *fixture) chat(t *testing.T, user domain.UserID, author domain.Role) {
	t.Helper()
	f.seq++
	msg := &domain.Message{
		ID:        domain.MessageID(fmt.Sprintf("m-%d", f.seq)),
		SessionID: "s1",
		UserID:    user,
		Author:    author,
		CreatedAt: time.Now(),
	}
	if err := f.messages.CreateMessage(context.Background(), msg); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
}

func level(v int) *int { return &v }

func types(badges []*domain.EarnedBadge) map[domain.BadgeType]bool {
	out := map[domain.BadgeType]bool{}
	for _, b := range badges {
		out[b.Type] = true
	}
	return out
}

func TestFirstMoodThenFirstJournal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.mood(t, "u1", level(3))

	granted, err := f.eval.Evaluate(ctx, "u1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(granted) != 1 || granted[0].Type != domain.BadgeFirstMood {
		t.Fatalf("expected only first_mood, got %+v", granted)
	}
	if granted[0].Name == "" || granted[0].Description == "" || granted[0].ID == "" {
		t.Fatalf("granted badge is missing fields: %+v", granted[0])
	}

	f.entry(t, "u1")

	granted, err = f.eval.Evaluate(ctx, "u1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(granted) != 1 || granted[0].Type != domain.BadgeFirstJournal {
		t.Fatalf("expected only first_journal, got %+v", granted)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.mood(t, "u1", level(5))
	f.entry(t, "u1")
	f.chat(t, "u1", domain.RoleUser)

	first, err := f.eval.Evaluate(ctx, "u1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	got := types(first)
	for _, want := range []domain.BadgeType{domain.BadgeFirstMood, domain.BadgeFirstJournal, domain.BadgeWellnessWarrior} {
		if !got[want] {
			t.Fatalf("expected %s in first run, got %v", want, got)
		}
	}

	second, err := f.eval.Evaluate(ctx, "u1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no new badges on second run, got %+v", second)
	}
}

func TestPositiveVibesBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("six levels never qualify", func(t *testing.T) {
		f := newFixture()
		for i := 0; i < 6; i++ {
			f.mood(t, "u1", level(5))
		}
		granted, _ := f.eval.Evaluate(ctx, "u1")
		if types(granted)[domain.BadgePositiveVibes] {
			t.Fatalf("positive_vibes granted with only 6 levels")
		}
	})

	t.Run("null levels do not count toward the window", func(t *testing.T) {
		f := newFixture()
		for i := 0; i < 6; i++ {
			f.mood(t, "u1", level(5))
		}
		f.mood(t, "u1", nil)
		f.mood(t, "u1", nil)
		granted, _ := f.eval.Evaluate(ctx, "u1")
		if types(granted)[domain.BadgePositiveVibes] {
			t.Fatalf("positive_vibes granted with only 6 non-null levels")
		}
	})

	t.Run("seventh level averaging exactly 4.0 qualifies", func(t *testing.T) {
		f := newFixture()
		for _, l := range []int{4, 4, 4, 4, 4, 4} {
			f.mood(t, "u1", level(l))
		}
		granted, _ := f.eval.Evaluate(ctx, "u1")
		if types(granted)[domain.BadgePositiveVibes] {
			t.Fatalf("positive_vibes granted before the 7th level")
		}

		f.mood(t, "u1", level(4))
		granted, _ = f.eval.Evaluate(ctx, "u1")
		got := types(granted)
		if !got[domain.BadgePositiveVibes] {
			t.Fatalf("expected positive_vibes at average 4.0, got %v", got)
		}
		if !got[domain.BadgeWeekTracker] {
			t.Fatalf("expected week_tracker at 7 entries, got %v", got)
		}
	})

	t.Run("only the most recent seven count", func(t *testing.T) {
		f := newFixture()
		for i := 0; i < 5; i++ {
			f.mood(t, "u1", level(1))
		}
		for i := 0; i < 7; i++ {
			f.mood(t, "u1", level(5))
		}
		granted, _ := f.eval.Evaluate(ctx, "u1")
		if !types(granted)[domain.BadgePositiveVibes] {
			t.Fatalf("expected positive_vibes from last 7 levels")
		}
	})

	t.Run("average just under 4.0 does not qualify", func(t *testing.T) {
		f := newFixture()
		for _, l := range []int{4, 4, 4, 4, 4, 4, 3} {
			f.mood(t, "u1", level(l))
		}
		granted, _ := f.eval.Evaluate(ctx, "u1")
		if types(granted)[domain.BadgePositiveVibes] {
			t.Fatalf("positive_vibes granted below 4.0")
		}
	})
}

func TestCountThresholds(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for i := 0; i < 9; i++ {
		f.entry(t, "u1")
	}
	for i := 0; i < 24; i++ {
		f.chat(t, "u1", domain.RoleUser)
		f.chat(t, "u1", domain.RoleBot)
	}

	got := types(mustEvaluate(t, f, "u1"))
	if got[domain.BadgeJournalEnthusiast] || got[domain.BadgeConversationStarter] {
		t.Fatalf("thresholds granted too early: %v", got)
	}

	f.entry(t, "u1")
	f.chat(t, "u1", domain.RoleUser)

	got = types(mustEvaluate(t, f, "u1"))
	if !got[domain.BadgeJournalEnthusiast] || !got[domain.BadgeConversationStarter] {
		t.Fatalf("expected journal_enthusiast and conversation_starter, got %v", got)
	}

	snap, err := f.eval.Snapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.ChatMessages != 25 || snap.JournalEntries != 10 || snap.MoodEntries != 0 || snap.HasMoodAverage {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func mustEvaluate(t *testing.T, f *fixture, user domain.UserID) []*domain.EarnedBadge {
	t.Helper()
	granted, err := f.eval.Evaluate(context.Background(), user)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return granted
}

func TestConcurrentEvaluationsGrantOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.mood(t, "u1", level(4))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, err := f.eval.Evaluate(ctx, "u1")
			if err != nil {
				t.Errorf("Evaluate failed: %v", err)
				return
			}
			mu.Lock()
			total += len(granted)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 1 {
		t.Fatalf("expected first_mood granted once across runs, got %d grants", total)
	}
}

// racingBadgeStore reports "not held" but loses every insert, as a store would
// when another process wins between the check and the insert.
type racingBadgeStore struct{ *memory.BadgeStore }

func (racingBadgeStore) HasBadge(context.Context, domain.UserID, domain.BadgeType) (bool, error) {
	return false, nil
}

func (racingBadgeStore) CreateBadge(context.Context, *domain.EarnedBadge) (bool, error) {
	return false, nil
}

func TestLostCreateRaceIsNotAnError(t *testing.T) {
	messages := memory.NewMessageStore()
	journal := memory.NewJournalStore()
	_ = journal.CreateMoodEntry(context.Background(), &domain.MoodEntry{UserID: "u1", Level: level(3)})

	eval := achievements.NewEvaluator(memory.NewActivityStore(messages, journal), racingBadgeStore{memory.NewBadgeStore()}, nil)

	granted, err := eval.Evaluate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(granted) != 0 {
		t.Fatalf("expected no grants, got %+v", granted)
	}
}

type failingBadgeStore struct{ *memory.BadgeStore }

var errStoreDown = errors.New("store down")

func (failingBadgeStore) CreateBadge(context.Context, *domain.EarnedBadge) (bool, error) {
	return false, errStoreDown
}

func TestCreateFailureIsReportedAsPersistenceError(t *testing.T) {
	messages := memory.NewMessageStore()
	journal := memory.NewJournalStore()
	_ = journal.CreateMoodEntry(context.Background(), &domain.MoodEntry{UserID: "u1", Level: level(3)})

	eval := achievements.NewEvaluator(memory.NewActivityStore(messages, journal), failingBadgeStore{memory.NewBadgeStore()}, nil)

	_, err := eval.Evaluate(context.Background(), "u1")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if !domain.IsPersistenceError(err) {
		t.Fatalf("expected a PersistenceError, got %T", err)
	}
}

func TestDefinitionsTable(t *testing.T) {
	defs := achievements.Definitions()
	if len(defs) != 7 {
		t.Fatalf("expected 7 badge definitions, got %d", len(defs))
	}
	seen := map[domain.BadgeType]bool{}
	for _, d := range defs {
		if seen[d.Type] {
			t.Fatalf("duplicate definition %s", d.Type)
		}
		seen[d.Type] = true
		if d.Qualifies(domain.ActivitySnapshot{}) {
			t.Fatalf("%s qualifies with no activity", d.Type)
		}
	}
	if _, ok := achievements.DefinitionFor(domain.BadgePositiveVibes); !ok {
		t.Fatalf("DefinitionFor(positive_vibes) not found")
	}
}
