package domain

// Message represents any message in a session timeline (user or bot).
// Emotion is only ever set on user-authored messages.
type Message struct {
	ID        MessageID
	SessionID SessionID
	UserID    UserID
	Author    Role
	Text      string
	CreatedAt Timestamp

	Emotion *Category
}

// IsBot reports whether the message was produced by the companion.
func (m *Message) IsBot() bool {
	return m.Author == RoleBot
}

// Session groups the ordered messages of one user.
type Session struct {
	ID        SessionID
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp

	Title string
}
