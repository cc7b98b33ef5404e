package firestore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-wellness/internal/adapters/storage/firestore"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// newEmulatorStore needs a running emulator; the client picks it up from
// FIRESTORE_EMULATOR_HOST.
func newEmulatorStore(t *testing.T) *firestore.Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("set FIRESTORE_EMULATOR_HOST to run firestore integration tests")
	}

	store, err := firestore.NewStore(context.Background(), "farum-test")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStoreRequiresProject(t *testing.T) {
	if _, err := firestore.NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty project id")
	}
}

func TestCreateBadgeIsUniquePerType(t *testing.T) {
	ctx := context.Background()
	store := newEmulatorStore(t)
	user := domain.UserID("u-" + uuid.NewString())

	badge := &domain.EarnedBadge{ID: domain.BadgeID(uuid.NewString()), UserID: user, Type: domain.BadgeFirstMood, EarnedAt: time.Now()}

	created, err := store.CreateBadge(ctx, badge)
	if err != nil || !created {
		t.Fatalf("first CreateBadge = %v, %v", created, err)
	}
	created, err = store.CreateBadge(ctx, badge)
	if err != nil || created {
		t.Fatalf("duplicate CreateBadge = %v, %v; want false, nil", created, err)
	}

	has, err := store.HasBadge(ctx, user, domain.BadgeFirstMood)
	if err != nil || !has {
		t.Fatalf("HasBadge = %v, %v", has, err)
	}
}

func TestMessagesAndEmotion(t *testing.T) {
	ctx := context.Background()
	store := newEmulatorStore(t)
	sessionID := domain.SessionID(uuid.NewString())
	user := domain.UserID("u-" + uuid.NewString())
	now := time.Now()

	if err := store.CreateSession(ctx, &domain.Session{ID: sessionID, UserID: user, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	msg := &domain.Message{ID: "m1", SessionID: sessionID, UserID: user, Author: domain.RoleUser, Text: "so angry", CreatedAt: now}
	if err := store.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if err := store.SetMessageEmotion(ctx, sessionID, "m1", domain.CategoryAnger); err != nil {
		t.Fatalf("SetMessageEmotion failed: %v", err)
	}

	msgs, err := store.ListMessages(ctx, sessionID, 0)
	if err != nil || len(msgs) != 1 || msgs[0].Emotion == nil || *msgs[0].Emotion != domain.CategoryAnger {
		t.Fatalf("unexpected messages %+v, %v", msgs, err)
	}

	n, err := store.CountUserChatMessages(ctx, user)
	if err != nil || n != 1 {
		t.Fatalf("CountUserChatMessages = %d, %v", n, err)
	}
}
