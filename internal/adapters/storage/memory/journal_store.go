package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// JournalStore is a simple in-memory implementation of domain.JournalStore.
// It is NOT persistent and is only suitable for development / local mode.
// Entries are kept per user in insertion order.
type JournalStore struct {
	mu      sync.RWMutex
	moods   map[domain.UserID][]*domain.MoodEntry
	entries map[domain.UserID][]*domain.JournalEntry
}

// NewJournalStore creates a new in-memory JournalStore.
func NewJournalStore() *JournalStore {
	return &JournalStore{
		moods:   make(map[domain.UserID][]*domain.MoodEntry),
		entries: make(map[domain.UserID][]*domain.JournalEntry),
	}
}

func (s *JournalStore) CreateMoodEntry(_ context.Context, entry *domain.MoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.moods[entry.UserID] = append(s.moods[entry.UserID], cloneMood(entry))
	return nil
}

// ListMoodEntries returns the last `limit` mood entries, most recent first.
// If limit <= 0, returns all.
func (s *JournalStore) ListMoodEntries(_ context.Context, userID domain.UserID, limit int) ([]*domain.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	moods := s.moods[userID]
	out := make([]*domain.MoodEntry, 0, len(moods))
	for i := len(moods) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, cloneMood(moods[i]))
	}
	return out, nil
}

func (s *JournalStore) CreateJournalEntry(_ context.Context, entry *domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries[entry.UserID] = append(s.entries[entry.UserID], &cp)
	return nil
}

// ListJournalEntriesByUser returns the last `limit` entries for a user, most
// recent first. If limit <= 0, returns all.
func (s *JournalStore) ListJournalEntriesByUser(_ context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[userID]
	out := make([]*domain.JournalEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		cp := *entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func cloneMood(m *domain.MoodEntry) *domain.MoodEntry {
	cp := *m
	if m.Level != nil {
		l := *m.Level
		cp.Level = &l
	}
	return &cp
}
