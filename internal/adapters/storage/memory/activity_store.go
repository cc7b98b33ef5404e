package memory

import (
	"context"
	"sort"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// ActivityStore derives activity aggregates from the in-memory message and
// journal stores.
type ActivityStore struct {
	messages *MessageStore
	journal  *JournalStore
}

func NewActivityStore(messages *MessageStore, journal *JournalStore) *ActivityStore {
	return &ActivityStore{messages: messages, journal: journal}
}

func (s *ActivityStore) CountMoodEntries(_ context.Context, userID domain.UserID) (int64, error) {
	s.journal.mu.RLock()
	defer s.journal.mu.RUnlock()

	return int64(len(s.journal.moods[userID])), nil
}

func (s *ActivityStore) CountJournalEntries(_ context.Context, userID domain.UserID) (int64, error) {
	s.journal.mu.RLock()
	defer s.journal.mu.RUnlock()

	return int64(len(s.journal.entries[userID])), nil
}

func (s *ActivityStore) CountUserChatMessages(_ context.Context, userID domain.UserID) (int64, error) {
	var n int64
	s.messages.each(func(m *domain.Message) {
		if m.UserID == userID && m.Author == domain.RoleUser {
			n++
		}
	})
	return n, nil
}

func (s *ActivityStore) RecentMoodLevels(_ context.Context, userID domain.UserID, limit int) ([]int, error) {
	s.journal.mu.RLock()
	defer s.journal.mu.RUnlock()

	moods := s.journal.moods[userID]
	levels := []int{}
	for i := len(moods) - 1; i >= 0; i-- {
		if limit > 0 && len(levels) >= limit {
			break
		}
		if moods[i].Level == nil {
			continue
		}
		levels = append(levels, *moods[i].Level)
	}
	return levels, nil
}

func (s *ActivityStore) ListActiveUsers(_ context.Context, since time.Time) ([]domain.UserID, error) {
	seen := map[domain.UserID]struct{}{}

	s.journal.mu.RLock()
	for userID, moods := range s.journal.moods {
		for _, m := range moods {
			if !m.CreatedAt.Before(since) {
				seen[userID] = struct{}{}
				break
			}
		}
	}
	for userID, entries := range s.journal.entries {
		for _, e := range entries {
			if !e.CreatedAt.Before(since) {
				seen[userID] = struct{}{}
				break
			}
		}
	}
	s.journal.mu.RUnlock()

	s.messages.each(func(m *domain.Message) {
		if m.Author == domain.RoleUser && !m.CreatedAt.Before(since) {
			seen[m.UserID] = struct{}{}
		}
	})

	out := make([]domain.UserID, 0, len(seen))
	for userID := range seen {
		out = append(out, userID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
