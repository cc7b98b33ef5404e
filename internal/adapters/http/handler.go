package httpadapter

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/farum-wellness/internal/app/achievements"
	"github.com/PabloGalante/farum-wellness/internal/app/conversation"
	journalapp "github.com/PabloGalante/farum-wellness/internal/app/journal"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Services is everything the HTTP API serves. Metrics and AllowOrigins are
// optional.
type Services struct {
	Conversation *conversation.Service
	Journal      *journalapp.Service
	Achievements *achievements.Evaluator
	Badges       domain.BadgeStore

	Metrics      prometheus.Gatherer
	AllowOrigins []string
}

type Server struct {
	conv    *conversation.Service
	journal *journalapp.Service
	eval    *achievements.Evaluator
	badges  domain.BadgeStore
}

func NewServer(svcs Services) http.Handler {
	s := &Server{
		conv:    svcs.Conversation,
		journal: svcs.Journal,
		eval:    svcs.Achievements,
		badges:  svcs.Badges,
	}

	r := gin.New()
	r.Use(gin.Recovery(), withRequestID(), withLogging(), withCORS(svcs.AllowOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if svcs.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svcs.Metrics, promhttp.HandlerOpts{})))
	}

	sessions := r.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:id", s.handleGetSession)
	sessions.DELETE("/:id", s.handleEndSession)
	sessions.POST("/:id/messages", s.handleSendMessage)

	users := r.Group("/users/:id")
	users.GET("/sessions", s.handleListSessions)
	users.POST("/moods", s.handleRecordMood)
	users.GET("/moods", s.handleListMoods)
	users.POST("/journal", s.handleWriteJournal)
	users.GET("/journal", s.handleGetJournal)
	users.GET("/badges", s.handleListBadges)
	users.GET("/activity", s.handleActivity)
	users.POST("/achievements/evaluate", s.handleEvaluate)

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createSessionRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title,omitempty"`
}

type createSessionResponse struct {
	Session   sessionResponse  `json:"session"`
	Welcome   *messageResponse `json:"welcome_message,omitempty"`
	Persisted bool             `json:"persisted"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	State     string    `json:"state,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type sendMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	Category         string                `json:"category"`
	PrimaryResponse  string                `json:"primary_response"`
	FollowUpResponse string                `json:"follow_up_response,omitempty"`
	UserMessage      *messageResponse      `json:"user_message,omitempty"`
	BotMessage       *messageResponse      `json:"bot_message,omitempty"`
	NewBadges        []*domain.EarnedBadge `json:"new_badges"`
	Persisted        bool                  `json:"persisted"`
}

type getSessionResponse struct {
	Session  sessionResponse   `json:"session"`
	Messages []messageResponse `json:"messages"`
}

type recordMoodRequest struct {
	Level *int   `json:"level"`
	Note  string `json:"note,omitempty"`
}

type writeJournalRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

type activityResponse struct {
	MoodEntries       int64    `json:"mood_entries"`
	JournalEntries    int64    `json:"journal_entries"`
	ChatMessages      int64    `json:"chat_messages"`
	RecentMoodAverage *float64 `json:"recent_mood_average"`
}

// ─────────────────────────────────────────────
// Session handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(c, "user_id is required")
		return
	}

	out, err := s.conv.StartSession(c.Request.Context(), conversation.StartSessionInput{
		UserID: domain.UserID(req.UserID),
		Title:  req.Title,
	})
	if !tolerated(c, err) {
		writeError(c, err)
		return
	}

	resp := createSessionResponse{
		Session:   toSessionResponse(out.Session, s.conv.State(out.Session.ID)),
		Persisted: err == nil,
	}
	if out.Welcome != nil {
		m := toMessageResponse(out.Welcome)
		resp.Welcome = &m
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleGetSession(c *gin.Context) {
	id := domain.SessionID(c.Param("id"))

	session, msgs, err := s.conv.GetSessionTimeline(c.Request.Context(), id, queryLimit(c, 0))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, getSessionResponse{
		Session:  toSessionResponse(session, s.conv.State(id)),
		Messages: toMessagesResponse(msgs),
	})
}

func (s *Server) handleEndSession(c *gin.Context) {
	s.conv.EndSession(c.Request.Context(), domain.SessionID(c.Param("id")))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(c, "user_id is required")
		return
	}

	reply, err := s.conv.ClassifyAndRespond(c.Request.Context(), domain.SessionID(c.Param("id")), domain.UserID(req.UserID), req.Text)
	if reply == nil || !tolerated(c, err) {
		writeError(c, err)
		return
	}

	resp := sendMessageResponse{
		Category:         string(reply.Category),
		PrimaryResponse:  reply.Primary,
		FollowUpResponse: reply.FollowUp,
		NewBadges:        nonNilBadges(reply.NewBadges),
		Persisted:        err == nil,
	}
	if reply.UserMessage != nil {
		m := toMessageResponse(reply.UserMessage)
		resp.UserMessage = &m
	}
	if reply.BotMessage != nil {
		m := toMessageResponse(reply.BotMessage)
		resp.BotMessage = &m
	}

	c.JSON(http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// User handlers
// ─────────────────────────────────────────────

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.conv.ListSessions(c.Request.Context(), domain.UserID(c.Param("id")), queryLimit(c, 20))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionResponse(sess, s.conv.State(sess.ID)))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (s *Server) handleRecordMood(c *gin.Context) {
	var req recordMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	out, err := s.journal.RecordMood(c.Request.Context(), journalapp.RecordMoodInput{
		UserID: domain.UserID(c.Param("id")),
		Level:  req.Level,
		Note:   req.Note,
	})
	if out == nil || !tolerated(c, err) {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"entry":      out.Entry,
		"new_badges": nonNilBadges(out.NewBadges),
		"persisted":  err == nil,
	})
}

func (s *Server) handleListMoods(c *gin.Context) {
	moods, err := s.journal.ListMoods(c.Request.Context(), domain.UserID(c.Param("id")), queryLimit(c, 0))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moods": moods})
}

func (s *Server) handleWriteJournal(c *gin.Context) {
	var req writeJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	out, err := s.journal.WriteJournalEntry(c.Request.Context(), journalapp.WriteJournalInput{
		UserID:  domain.UserID(c.Param("id")),
		Title:   req.Title,
		Content: req.Content,
	})
	if out == nil || !tolerated(c, err) {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"entry":      out.Entry,
		"new_badges": nonNilBadges(out.NewBadges),
		"persisted":  err == nil,
	})
}

func (s *Server) handleGetJournal(c *gin.Context) {
	entries, err := s.journal.GetUserJournal(c.Request.Context(), domain.UserID(c.Param("id")), queryLimit(c, 0))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleListBadges(c *gin.Context) {
	badges, err := s.badges.ListBadges(c.Request.Context(), domain.UserID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": nonNilBadges(badges)})
}

func (s *Server) handleActivity(c *gin.Context) {
	snap, err := s.eval.Snapshot(c.Request.Context(), domain.UserID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := activityResponse{
		MoodEntries:    snap.MoodEntries,
		JournalEntries: snap.JournalEntries,
		ChatMessages:   snap.ChatMessages,
	}
	if snap.HasMoodAverage {
		avg := snap.RecentMoodAverage
		resp.RecentMoodAverage = &avg
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEvaluate(c *gin.Context) {
	granted, err := s.eval.Evaluate(c.Request.Context(), domain.UserID(c.Param("id")))
	if !tolerated(c, err) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"new_badges": nonNilBadges(granted),
		"persisted":  err == nil,
	})
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func queryLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func nonNilBadges(b []*domain.EarnedBadge) []*domain.EarnedBadge {
	if b == nil {
		return []*domain.EarnedBadge{}
	}
	return b
}

func toSessionResponse(s *domain.Session, state conversation.State) sessionResponse {
	return sessionResponse{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Title:     s.Title,
		State:     string(state),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	resp := messageResponse{
		ID:        string(m.ID),
		SessionID: string(m.SessionID),
		Author:    string(m.Author),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
	if m.Emotion != nil {
		resp.Emotion = string(*m.Emotion)
	}
	return resp
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}
