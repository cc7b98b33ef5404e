package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/PabloGalante/farum-wellness/internal/app/classifier"
	"github.com/PabloGalante/farum-wellness/internal/app/responder"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const (
	DefaultFollowUpDelay = 2 * time.Second
	DefaultSessionTTL    = 30 * time.Minute
)

// AchievementChecker grants badges after user activity.
type AchievementChecker interface {
	Evaluate(ctx context.Context, userID domain.UserID) ([]*domain.EarnedBadge, error)
}

// EmitterFunc adapts a function to domain.Emitter.
type EmitterFunc func(ctx context.Context, msg *domain.Message)

func (f EmitterFunc) Emit(ctx context.Context, msg *domain.Message) { f(ctx, msg) }

var nopEmitter = EmitterFunc(func(context.Context, *domain.Message) {})

type Option func(*Service)

func WithEmitter(e domain.Emitter) Option {
	return func(s *Service) {
		if e != nil {
			s.emitter = e
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAchievements(a AchievementChecker) Option {
	return func(s *Service) { s.achievements = a }
}

func WithFollowUpDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.followUpDelay = d
		}
	}
}

// WithSessionTTL sets how long an idle session stays live. Zero keeps
// sessions until they are ended.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) { s.sessionTTL = d }
}

// WithTimer replaces time.After for follow-up scheduling.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(s *Service) {
		if after != nil {
			s.after = after
		}
	}
}

// Service runs the conversation loop: classify, respond, follow up.
type Service struct {
	sessionStore domain.SessionStore
	messageStore domain.MessageStore
	classifier   *classifier.Classifier
	generator    *responder.Generator

	emitter       domain.Emitter
	metrics       *observability.Metrics
	achievements  AchievementChecker
	followUpDelay time.Duration
	sessionTTL    time.Duration

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	rootCancel context.CancelFunc
	sessions   *registry
	wg         sync.WaitGroup
}

func NewService(
	sessionStore domain.SessionStore,
	messageStore domain.MessageStore,
	cls *classifier.Classifier,
	gen *responder.Generator,
	opts ...Option,
) *Service {
	if cls == nil {
		cls = classifier.New(nil)
	}
	if gen == nil {
		gen = responder.New(nil)
	}

	s := &Service{
		sessionStore:  sessionStore,
		messageStore:  messageStore,
		classifier:    cls,
		generator:     gen,
		emitter:       nopEmitter,
		followUpDelay: DefaultFollowUpDelay,
		sessionTTL:    DefaultSessionTTL,
		now:           time.Now,
		after:         time.After,
	}
	for _, opt := range opts {
		opt(s)
	}

	root, cancel := context.WithCancel(context.Background())
	s.rootCancel = cancel
	s.sessions = newRegistry(root, s.sessionTTL)

	return s
}

type StartSessionInput struct {
	UserID domain.UserID
	Title  string
}

type StartSessionOutput struct {
	Session *domain.Session
	Welcome *domain.Message
}

// StartSession creates a session and greets the user. No user message is
// stored for the greeting.
func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	now := s.now()

	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)
	log.Info("starting new session")

	session := &domain.Session{
		ID:        domain.SessionID(uuid.NewString()),
		UserID:    in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
		Title:     in.Title,
	}

	var errs []error
	if err := s.sessionStore.CreateSession(ctx, session); err != nil {
		log.Error("failed to create session", "error", err)
		errs = append(errs, s.persistFailed("create_session", err))
	}

	live := s.sessions.acquire(session.ID)
	live.setState(StateRespondingPrimary)

	greeting := s.generator.Respond(s.classifier.Classify(""))
	welcome, err := s.sendBot(ctx, session, greeting.Primary)
	if err != nil {
		log.Error("failed to persist welcome message", "error", err)
		errs = append(errs, err)
	}
	s.metrics.ResponseSent("greeting")

	live.setState(StateAwaitingUserInput)
	log.Info("session started", "session_id", session.ID)

	return &StartSessionOutput{
		Session: session,
		Welcome: welcome,
	}, errors.Join(errs...)
}

// Reply is the outcome of one inbound message.
type Reply struct {
	Category domain.Category
	Intent   classifier.Intent
	Primary  string
	FollowUp string

	// UserMessage is nil when the input was empty.
	UserMessage *domain.Message
	BotMessage  *domain.Message
	NewBadges   []*domain.EarnedBadge
}

// HasFollowUp reports whether a follow-up was scheduled.
func (r *Reply) HasFollowUp() bool { return r.FollowUp != "" }

// ClassifyAndRespond stores the user's message, classifies it, answers with
// the primary response and schedules the follow-up if there is one.
//
// The reply is always returned. Storage failures are reported next to it as
// joined *domain.PersistenceError values.
func (s *Service) ClassifyAndRespond(ctx context.Context, sessionID domain.SessionID, userID domain.UserID, text string) (*Reply, error) {
	ctx, span := observability.Tracer().Start(ctx, "conversation.ClassifyAndRespond")
	defer span.End()

	if sessionID == "" {
		sessionID = domain.SessionID(uuid.NewString())
	}

	log := observability.LoggerFromContext(ctx).With("session_id", sessionID)

	session, errs, err := s.ensureSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	log = log.With("user_id", session.UserID)

	live := s.sessions.acquire(session.ID)
	live.setState(StateAwaitingUserInput)

	reply := &Reply{}

	userStored := false
	if classifier.Normalize(text) != "" {
		userMsg := &domain.Message{
			ID:        domain.MessageID(uuid.NewString()),
			SessionID: session.ID,
			UserID:    session.UserID,
			Author:    domain.RoleUser,
			Text:      text,
			CreatedAt: s.now(),
		}
		if err := s.messageStore.CreateMessage(ctx, userMsg); err != nil {
			log.Warn("failed to persist user message", "error", err)
			errs = append(errs, s.persistFailed("create_user_message", err))
		} else {
			userStored = true
		}
		reply.UserMessage = userMsg
	}

	live.setState(StateClassifying)
	start := time.Now()
	result := s.classifier.Classify(text)
	s.metrics.ObserveClassified(result.Category, time.Since(start).Seconds())

	reply.Category = result.Category
	reply.Intent = result.Intent
	span.SetAttributes(
		attribute.String("message.category", string(result.Category)),
		attribute.String("message.tier", result.Tier),
	)
	log.Info("message classified", "category", result.Category, "tier", result.Tier)

	if reply.UserMessage != nil {
		category := result.Category
		reply.UserMessage.Emotion = &category
	}
	if userStored {
		if err := s.messageStore.SetMessageEmotion(ctx, session.ID, reply.UserMessage.ID, result.Category); err != nil {
			log.Warn("failed to tag user message", "error", err)
			errs = append(errs, s.persistFailed("set_message_emotion", err))
		}
	}

	live.setState(StateRespondingPrimary)
	resp := s.generator.Respond(result)
	reply.Primary = resp.Primary
	reply.FollowUp = resp.FollowUp

	botMsg, err := s.sendBot(ctx, session, resp.Primary)
	if err != nil {
		log.Warn("failed to persist primary response", "error", err)
		errs = append(errs, err)
	}
	reply.BotMessage = botMsg
	s.metrics.ResponseSent("primary")

	if resp.HasFollowUp() {
		s.scheduleFollowUp(live, session, resp.FollowUp, log)
	}
	live.transition(StateRespondingPrimary, StateAwaitingUserInput)

	session.UpdatedAt = s.now()
	if err := s.sessionStore.UpdateSession(ctx, session); err != nil {
		log.Warn("failed to update session", "error", err)
		errs = append(errs, s.persistFailed("update_session", err))
	}

	if reply.UserMessage != nil && s.achievements != nil {
		badges, err := s.achievements.Evaluate(ctx, session.UserID)
		reply.NewBadges = badges
		if err != nil {
			if !domain.IsPersistenceError(err) {
				err = s.persistFailed("evaluate_achievements", err)
			}
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		return reply, err
	}
	return reply, nil
}

// ensureSession loads the session or creates it on first use. A failed lookup
// or create is reported but does not stop the conversation.
func (s *Service) ensureSession(ctx context.Context, id domain.SessionID, userID domain.UserID) (*domain.Session, []error, error) {
	session, err := s.sessionStore.GetSession(ctx, id)
	switch {
	case err == nil:
		if userID != "" && session.UserID != userID {
			return nil, nil, fmt.Errorf("%w: session %s belongs to another user", domain.ErrInvalidInput, id)
		}
		return session, nil, nil
	case !errors.Is(err, domain.ErrNotFound):
		if userID == "" {
			return nil, nil, s.persistFailed("get_session", err)
		}
		return s.newSession(id, userID), []error{s.persistFailed("get_session", err)}, nil
	}

	if userID == "" {
		return nil, nil, fmt.Errorf("%w: user id is required for a new session", domain.ErrInvalidInput)
	}

	session = s.newSession(id, userID)
	if err := s.sessionStore.CreateSession(ctx, session); err != nil {
		return session, []error{s.persistFailed("create_session", err)}, nil
	}
	observability.LoggerFromContext(ctx).Info("session created implicitly", "session_id", id, "user_id", userID)
	return session, nil, nil
}

func (s *Service) newSession(id domain.SessionID, userID domain.UserID) *domain.Session {
	now := s.now()
	return &domain.Session{ID: id, UserID: userID, CreatedAt: now, UpdatedAt: now}
}

// sendBot persists a bot message and emits it. The message is returned even
// when persisting fails.
func (s *Service) sendBot(ctx context.Context, session *domain.Session, text string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: session.ID,
		UserID:    session.UserID,
		Author:    domain.RoleBot,
		Text:      text,
		CreatedAt: s.now(),
	}

	if err := s.messageStore.CreateMessage(ctx, msg); err != nil {
		return msg, s.persistFailed("create_bot_message", err)
	}
	s.emitter.Emit(ctx, msg)
	return msg, nil
}

func (s *Service) persistFailed(op string, err error) error {
	s.metrics.PersistenceFailed(op)
	return &domain.PersistenceError{Op: op, Err: err}
}

// EndSession cancels the session's pending follow-ups. It reports whether the
// session was live.
func (s *Service) EndSession(ctx context.Context, sessionID domain.SessionID) bool {
	ended := s.sessions.end(sessionID)
	observability.LoggerFromContext(ctx).Info("session ended", "session_id", sessionID, "was_live", ended)
	return ended
}

// State returns the session's current state; unknown sessions are idle.
func (s *Service) State(sessionID domain.SessionID) State {
	live, ok := s.sessions.get(sessionID)
	if !ok {
		return StateIdle
	}
	return live.currentState()
}

func (s *Service) GetSessionTimeline(
	ctx context.Context,
	sessionID domain.SessionID,
	limit int,
) (*domain.Session, []*domain.Message, error) {

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"limit", limit,
	)

	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return nil, nil, err
	}

	msgs, err := s.messageStore.ListMessages(ctx, sessionID, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, err
	}

	log.Info("fetched session timeline", "message_count", len(msgs))

	return session, msgs, nil
}

func (s *Service) ListSessions(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	sessions, err := s.sessionStore.ListSessionsByUser(ctx, userID, limit)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list sessions", "user_id", userID, "error", err)
		return nil, err
	}
	return sessions, nil
}

// Close cancels every live session and waits for scheduled follow-ups.
func (s *Service) Close() {
	s.sessions.closeAll()
	s.rootCancel()
	s.wg.Wait()
}
