package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type badgeKey struct {
	userID    domain.UserID
	badgeType domain.BadgeType
}

// BadgeStore keeps earned badges keyed by (user, badge type); the mutex makes
// the existence check and the insert a single step.
type BadgeStore struct {
	mu     sync.RWMutex
	badges map[badgeKey]*domain.EarnedBadge
}

func NewBadgeStore() *BadgeStore {
	return &BadgeStore{
		badges: make(map[badgeKey]*domain.EarnedBadge),
	}
}

func (s *BadgeStore) HasBadge(_ context.Context, userID domain.UserID, badgeType domain.BadgeType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.badges[badgeKey{userID, badgeType}]
	return ok, nil
}

func (s *BadgeStore) CreateBadge(_ context.Context, badge *domain.EarnedBadge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := badgeKey{badge.UserID, badge.Type}
	if _, exists := s.badges[key]; exists {
		return false, nil
	}

	cp := *badge
	s.badges[key] = &cp
	return true, nil
}

// ListBadges returns the user's badges, oldest first.
func (s *BadgeStore) ListBadges(_ context.Context, userID domain.UserID) ([]*domain.EarnedBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.EarnedBadge{}
	for key, b := range s.badges {
		if key.userID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].Type < out[j].Type
		}
		return out[i].EarnedAt.Before(out[j].EarnedAt)
	})
	return out, nil
}
