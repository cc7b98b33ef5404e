package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages map[domain.SessionID][]*domain.Message
	byID     map[domain.MessageID]*domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[domain.SessionID][]*domain.Message),
		byID:     make(map[domain.MessageID]*domain.Message),
	}
}

func (s *MessageStore) CreateMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[msg.ID]; exists {
		return fmt.Errorf("message %s already exists", msg.ID)
	}

	cp := cloneMessage(msg)
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], cp)
	s.byID[msg.ID] = cp
	return nil
}

func (s *MessageStore) SetMessageEmotion(_ context.Context, sessionID domain.SessionID, id domain.MessageID, category domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[id]
	if !ok || msg.SessionID != sessionID {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	if msg.IsBot() {
		return fmt.Errorf("%w: bot messages carry no emotion", domain.ErrInvalidInput)
	}

	c := category
	msg.Emotion = &c
	return nil
}

func (s *MessageStore) ListMessages(_ context.Context, sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, cloneMessage(m))
	}
	return out, nil
}

// each returns a snapshot of every stored message.
func (s *MessageStore) each(fn func(*domain.Message)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.byID {
		fn(m)
	}
}

func cloneMessage(m *domain.Message) *domain.Message {
	cp := *m
	if m.Emotion != nil {
		e := *m.Emotion
		cp.Emotion = &e
	}
	return &cp
}
