// Package controller implements the chat client's session state machine. It
// owns authentication state, the session collection, and the orchestration of
// login, history loading, and message exchange. All state changes funnel
// through the chat reducer under one mutex; network calls happen outside it.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/backend"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/chat"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/credstore"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/gateway"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/notify"
)

// Session titles and the assistant's greeting for a fresh account.
const (
	welcomeTitle   = "Welcome Chat"
	historyTitle   = "Previous Conversations"
	greetingText   = "Hello! I'm your AI customer support assistant. How can I help you today?"
	sendErrExpired = "Your session has expired. Please log in again."
	sendErrNoAuth  = "Please log in to continue."
	sendErrGeneric = "Sorry, I'm having trouble connecting. Please try again."
)

// AuthState is derived from the stored credential, never set ad hoc.
type AuthState struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// Snapshot is a point-in-time view of the whole client state for the
// presentation layer. The reducer is copy-on-write, so the contained session
// slices are stable.
type Snapshot struct {
	Auth    AuthState  `json:"auth"`
	Loading bool       `json:"loading"`
	Chat    chat.State `json:"chat"`
}

// AuthService issues credentials. Implemented by backend.AuthClient.
type AuthService interface {
	Login(ctx context.Context, username, password string) (backend.Credential, error)
	Register(ctx context.Context, username, password string) (backend.Credential, error)
}

// ChatService exchanges messages with the assistant. Implemented by
// backend.ChatClient.
type ChatService interface {
	Send(ctx context.Context, message string) (backend.Reply, error)
	History(ctx context.Context, username string) ([]backend.Exchange, error)
}

// Notifier receives user-facing notification events.
type Notifier interface {
	Publish(notify.Notification)
}

// Controller is the session state machine.
type Controller struct {
	mu      sync.Mutex
	auth    AuthState
	loading bool
	state   chat.State

	creds    credstore.Store
	authSvc  AuthService
	chatSvc  ChatService
	notifier Notifier
	logger   *slog.Logger

	subscribeOnce sync.Once
}

// New creates a controller and derives its initial authentication state from
// the credential store, so an unexpired login survives a restart.
func New(ctx context.Context, creds credstore.Store, authSvc AuthService, chatSvc ChatService, notifier Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		creds:    creds,
		authSvc:  authSvc,
		chatSvc:  chatSvc,
		notifier: notifier,
		logger:   logger,
	}

	tok, err := creds.Token(ctx)
	if err != nil {
		logger.Warn("failed to read stored credential", "error", err)
		return c
	}
	username, err := creds.Username(ctx)
	if err != nil {
		logger.Warn("failed to read stored username", "error", err)
		return c
	}
	if tok != "" && username != "" {
		c.auth = AuthState{Authenticated: true, Username: username}
		logger.Info("resumed session from stored credential", "username", username)
	}
	return c
}

// Start subscribes the controller to credential invalidation. The
// subscription lasts for the controller's lifetime and is established at most
// once, so a repeated Start cannot cause duplicate handling.
func (c *Controller) Start(ctx context.Context, bus *gateway.Bus) {
	c.subscribeOnce.Do(func() {
		sub := bus.Subscribe()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-sub:
					c.handleInvalidation()
				}
			}
		}()
	})
}

// Snapshot returns the current client state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Auth: c.auth, Loading: c.loading, Chat: c.state}
}

// Login exchanges credentials for a token and loads the user's history. On
// failure the state is unchanged and the error is returned so the caller's
// form logic can react; a notification is raised either way.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	cred, err := c.authSvc.Login(ctx, username, password)
	if err != nil {
		c.logger.Info("login failed", "username", username, "error", err)
		c.notifier.Publish(notify.Notification{
			Title:    "Login Failed",
			Body:     "Invalid username or password.",
			Severity: notify.SeverityError,
		})
		return err
	}
	return c.completeSignIn(ctx, cred, "Login Successful", "Welcome back, "+cred.Username+"!")
}

// Register creates an account and signs it in. Failure handling mirrors Login.
func (c *Controller) Register(ctx context.Context, username, password string) error {
	cred, err := c.authSvc.Register(ctx, username, password)
	if err != nil {
		c.logger.Info("registration failed", "username", username, "error", err)
		c.notifier.Publish(notify.Notification{
			Title:    "Registration Failed",
			Body:     "Username already exists or other error occurred.",
			Severity: notify.SeverityError,
		})
		return err
	}
	return c.completeSignIn(ctx, cred, "Registration Successful", "Welcome, "+cred.Username+"!")
}

func (c *Controller) completeSignIn(ctx context.Context, cred backend.Credential, title, body string) error {
	if err := c.creds.Save(ctx, cred.Token, cred.Username); err != nil {
		// Without the stored credential the gateway would reject every call,
		// so a failed save is a failed sign-in.
		c.logger.Error("failed to persist credential", "error", err)
		return err
	}

	c.mu.Lock()
	c.auth = AuthState{Authenticated: true, Username: cred.Username}
	c.mu.Unlock()

	c.LoadHistory(ctx)

	c.notifier.Publish(notify.Notification{Title: title, Body: body, Severity: notify.SeverityInfo})
	return nil
}

// Logout clears the credential and all session state. It is unconditional and
// idempotent: logging out twice lands in the same terminal state.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.creds.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear credential on logout", "error", err)
	}

	c.mu.Lock()
	c.auth = AuthState{}
	c.state = chat.Reduce(c.state, chat.Clear{})
	c.mu.Unlock()

	c.notifier.Publish(notify.Notification{
		Title:    "Logged Out",
		Body:     "You have been successfully logged out.",
		Severity: notify.SeverityInfo,
	})
}

// LoadHistory rebuilds the session collection from the message service. A
// failure, or an empty history, still leaves exactly one usable session; the
// UI is never left without one. No-op while anonymous.
func (c *Controller) LoadHistory(ctx context.Context) {
	c.mu.Lock()
	if !c.auth.Authenticated {
		c.mu.Unlock()
		return
	}
	username := c.auth.Username
	c.loading = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	var sessions []chat.Session
	exchanges, err := c.chatSvc.History(ctx, username)
	switch {
	case err != nil:
		c.logger.Warn("history load failed, falling back to welcome session", "error", err)
		sessions = []chat.Session{welcomeSession()}
	case len(exchanges) == 0:
		sessions = []chat.Session{welcomeSession()}
	default:
		sessions = []chat.Session{historySession(exchanges)}
	}

	c.mu.Lock()
	c.state = chat.Reduce(c.state, chat.SetSessions{Sessions: sessions})
	c.mu.Unlock()
}

// NewChat prepends an empty session and makes it active.
func (c *Controller) NewChat() {
	sess := chat.Session{
		ID:           chat.NewID(),
		Title:        chat.DefaultTitle,
		LastActivity: time.Now(),
	}

	c.mu.Lock()
	c.state = chat.Reduce(c.state, chat.CreateSession{Session: sess})
	c.mu.Unlock()
}

// SwitchChat activates the given session. An unknown id is a silent no-op.
func (c *Controller) SwitchChat(sessionID string) {
	c.mu.Lock()
	c.state = chat.Reduce(c.state, chat.SetActive{ID: sessionID})
	c.mu.Unlock()
}

// SendMessage appends the user's message and a pending assistant placeholder,
// then resolves the placeholder with the service's reply or a readable error.
// Requires an active session and an authenticated user; otherwise it is a
// silent no-op, since the UI should be unreachable in that state.
func (c *Controller) SendMessage(ctx context.Context, content string) {
	c.mu.Lock()
	if !c.auth.Authenticated {
		c.mu.Unlock()
		return
	}
	active, ok := c.state.Active()
	if !ok {
		c.mu.Unlock()
		return
	}

	now := time.Now()
	userMsg := chat.Message{
		ID:        chat.NewID(),
		Content:   content,
		Role:      chat.RoleUser,
		CreatedAt: now,
	}
	placeholder := chat.Message{
		ID:        chat.NewID(),
		Role:      chat.RoleAssistant,
		CreatedAt: now,
		Pending:   true,
	}

	// The placeholder id is captured before the call so the resolution stays
	// targeted even if other sends append to this session meanwhile.
	sessionID := active.ID
	placeholderID := placeholder.ID

	c.state = chat.Reduce(c.state, chat.AddMessage{SessionID: sessionID, Message: userMsg})
	c.state = chat.Reduce(c.state, chat.AddMessage{SessionID: sessionID, Message: placeholder})
	c.mu.Unlock()

	reply, err := c.chatSvc.Send(ctx, content)
	if err == nil {
		c.mu.Lock()
		c.state = chat.Reduce(c.state, chat.ResolveMessage{
			SessionID:  sessionID,
			MessageID:  placeholderID,
			Content:    reply.Text,
			Intent:     reply.Intent,
			Confidence: reply.Confidence,
		})
		c.mu.Unlock()
		return
	}

	c.logger.Warn("send failed", "session_id", sessionID, "error", err)
	text, n := classifySendFailure(err)

	c.mu.Lock()
	c.state = chat.Reduce(c.state, chat.ResolveMessage{
		SessionID: sessionID,
		MessageID: placeholderID,
		Content:   text,
	})
	c.mu.Unlock()

	c.notifier.Publish(n)
}

// handleInvalidation is the single subscriber to the gateway's invalidation
// signal: the only path to Anonymous besides an explicit Logout.
func (c *Controller) handleInvalidation() {
	c.logger.Info("credential invalidated, resetting session state")

	c.mu.Lock()
	c.auth = AuthState{}
	c.state = chat.Reduce(c.state, chat.Clear{})
	c.mu.Unlock()

	c.notifier.Publish(notify.Notification{
		Title:    "Session Expired",
		Body:     "Your session has expired. Please log in again.",
		Severity: notify.SeverityError,
	})
}

func classifySendFailure(err error) (string, notify.Notification) {
	switch {
	case errors.Is(err, gateway.ErrTokenExpired):
		return sendErrExpired, notify.Notification{
			Title:    "Session Expired",
			Body:     "Your session has expired. Please log in again.",
			Severity: notify.SeverityError,
		}
	case errors.Is(err, gateway.ErrUnauthenticated):
		return sendErrNoAuth, notify.Notification{
			Title:    "Authentication Required",
			Body:     "Authentication required. Please log in.",
			Severity: notify.SeverityError,
		}
	default:
		return sendErrGeneric, notify.Notification{
			Title:    "Connection Error",
			Body:     "Unable to reach the server. Please check your connection.",
			Severity: notify.SeverityError,
		}
	}
}

func welcomeSession() chat.Session {
	now := time.Now()
	return chat.Session{
		ID:    chat.NewID(),
		Title: welcomeTitle,
		Messages: []chat.Message{{
			ID:        chat.NewID(),
			Content:   greetingText,
			Role:      chat.RoleAssistant,
			CreatedAt: now,
		}},
		LastActivity: now,
	}
}

// historySession folds past exchanges into one session: per exchange a user
// message followed by the assistant's answer, both stamped with the recorded
// time. The service returns newest-first, so the first exchange drives
// LastActivity.
func historySession(exchanges []backend.Exchange) chat.Session {
	msgs := make([]chat.Message, 0, len(exchanges)*2)
	for _, ex := range exchanges {
		msgs = append(msgs,
			chat.Message{
				ID:        chat.NewID(),
				Content:   ex.Query,
				Role:      chat.RoleUser,
				CreatedAt: ex.Timestamp,
			},
			chat.Message{
				ID:        chat.NewID(),
				Content:   ex.Reply,
				Role:      chat.RoleAssistant,
				CreatedAt: ex.Timestamp,
				Intent:    ex.Intent,
			},
		)
	}
	return chat.Session{
		ID:           chat.NewID(),
		Title:        historyTitle,
		Messages:     msgs,
		LastActivity: exchanges[0].Timestamp,
	}
}
