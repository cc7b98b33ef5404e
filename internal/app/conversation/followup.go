package conversation

import (
	"github.com/google/uuid"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// scheduleFollowUp persists and emits text after the follow-up delay unless
// the session is cancelled first.
func (s *Service) scheduleFollowUp(live *liveSession, session *domain.Session, text string, log *observability.ZapLogger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-live.ctx.Done():
			s.followUpCancelled(live, log)
			return
		case <-s.after(s.followUpDelay):
		}

		// Both channels may be ready at once; cancellation wins.
		if live.ctx.Err() != nil {
			s.followUpCancelled(live, log)
			return
		}

		live.setState(StateRespondingFollowUp)
		defer live.transition(StateRespondingFollowUp, StateAwaitingUserInput)

		msg := &domain.Message{
			ID:        domain.MessageID(uuid.NewString()),
			SessionID: session.ID,
			UserID:    session.UserID,
			Author:    domain.RoleBot,
			Text:      text,
			CreatedAt: s.now(),
		}

		if err := s.messageStore.CreateMessage(live.ctx, msg); err != nil {
			s.metrics.PersistenceFailed("create_follow_up")
			log.Warn("failed to persist follow-up", "error", err)
			return
		}

		s.emitter.Emit(live.ctx, msg)
		s.metrics.ResponseSent("follow_up")
		log.Info("follow-up sent", "message_id", msg.ID)
	}()
}

func (s *Service) followUpCancelled(live *liveSession, log *observability.ZapLogger) {
	s.metrics.FollowUpCancelled()
	log.Debug("follow-up cancelled", "session_id", live.id)
}
