// Package chat holds the client-side conversation model: sessions, messages,
// and the pure state-transition function that is the only way they change.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTitle is the placeholder title of a freshly created session. It is
// replaced by the first message's leading text.
const DefaultTitle = "New Chat"

// titleRunes is how much of the first message becomes the session title.
const titleRunes = 30

// Message is a single entry in a session. A message with Pending set is a
// placeholder awaiting the assistant's reply; it resolves exactly once.
type Message struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	Pending    bool      `json:"pending,omitempty"`
	Intent     string    `json:"intent,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// Session is a titled, append-only conversation thread.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Messages     []Message `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
}

// State is the full session collection, most-recently-created first, plus the
// identifier of the active session.
type State struct {
	Sessions []Session `json:"sessions"`
	ActiveID string    `json:"active_id,omitempty"`
}

// NewID returns a fresh message or session identifier. IDs are generated
// synchronously so an in-flight operation can target its own message later.
func NewID() string {
	return uuid.NewString()
}

// Active returns the active session, if any.
func (s State) Active() (Session, bool) {
	return s.Session(s.ActiveID)
}

// Session returns the session with the given id, if present.
func (s State) Session(id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	for _, sess := range s.Sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return Session{}, false
}
