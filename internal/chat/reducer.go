package chat

// Action is the tagged union of state transitions. Reduce is the only code
// that interprets actions; everything else just constructs them.
type Action interface {
	isAction()
}

// SetSessions replaces the whole collection, activating the first session.
// Used when history is (re)loaded.
type SetSessions struct {
	Sessions []Session
}

// SetActive switches the active session. Unknown ids leave the state
// untouched; the presentation layer is expected to offer only valid ids.
type SetActive struct {
	ID string
}

// CreateSession prepends a session and makes it active.
type CreateSession struct {
	Session Session
}

// AddMessage appends a message to a session.
type AddMessage struct {
	SessionID string
	Message   Message
}

// ResolveMessage completes a pending placeholder: content replaced, pending
// cleared, intent/confidence attached. Targeted strictly by message id, never
// by position, because concurrent sends may have appended behind it.
type ResolveMessage struct {
	SessionID  string
	MessageID  string
	Content    string
	Intent     string
	Confidence float64
}

// Clear empties the state. Used on logout and credential invalidation.
type Clear struct{}

func (SetSessions) isAction()    {}
func (SetActive) isAction()      {}
func (CreateSession) isAction()  {}
func (AddMessage) isAction()     {}
func (ResolveMessage) isAction() {}
func (Clear) isAction()          {}

// Reduce applies one action and returns the next state. It never mutates its
// input: sessions and message slices touched by the action are copied, so a
// snapshot handed out earlier stays stable.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case SetSessions:
		next := State{Sessions: act.Sessions}
		if len(act.Sessions) > 0 {
			next.ActiveID = act.Sessions[0].ID
		}
		return next

	case SetActive:
		if _, ok := s.Session(act.ID); !ok {
			return s
		}
		s.ActiveID = act.ID
		return s

	case CreateSession:
		sessions := make([]Session, 0, len(s.Sessions)+1)
		sessions = append(sessions, act.Session)
		sessions = append(sessions, s.Sessions...)
		return State{Sessions: sessions, ActiveID: act.Session.ID}

	case AddMessage:
		return s.withSession(act.SessionID, func(sess Session) Session {
			if len(sess.Messages) == 0 && (sess.Title == "" || sess.Title == DefaultTitle) {
				sess.Title = deriveTitle(act.Message.Content)
			}
			msgs := make([]Message, 0, len(sess.Messages)+1)
			msgs = append(msgs, sess.Messages...)
			sess.Messages = append(msgs, act.Message)
			sess.LastActivity = act.Message.CreatedAt
			return sess
		})

	case ResolveMessage:
		return s.withSession(act.SessionID, func(sess Session) Session {
			idx := -1
			for i := range sess.Messages {
				if sess.Messages[i].ID == act.MessageID {
					idx = i
					break
				}
			}
			if idx == -1 {
				// Late resolution against a message that no longer exists
				// (cleared by logout or invalidation): dropped.
				return sess
			}
			msgs := make([]Message, len(sess.Messages))
			copy(msgs, sess.Messages)
			msgs[idx].Content = act.Content
			msgs[idx].Pending = false
			msgs[idx].Intent = act.Intent
			msgs[idx].Confidence = act.Confidence
			sess.Messages = msgs
			return sess
		})

	case Clear:
		return State{}

	default:
		return s
	}
}

// withSession rewrites one session through fn, copying the collection. A
// missing session id leaves the state unchanged.
func (s State) withSession(id string, fn func(Session) Session) State {
	idx := -1
	for i := range s.Sessions {
		if s.Sessions[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return s
	}
	sessions := make([]Session, len(s.Sessions))
	copy(sessions, s.Sessions)
	sessions[idx] = fn(sessions[idx])
	s.Sessions = sessions
	return s
}

func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleRunes {
		runes = runes[:titleRunes]
	}
	return string(runes) + "..."
}
