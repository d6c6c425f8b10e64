package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// SessionHandler handles session and chat endpoints.
type SessionHandler struct {
	*Handler
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *Handler) *SessionHandler {
	return &SessionHandler{Handler: base}
}

// RegisterRoutes registers session and chat routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", h.GetState)
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Post("/history", h.RefreshHistory)
	})
	r.Route("/api/chats", func(r chi.Router) {
		r.Post("/", h.CreateChat)
		r.Post("/{sessionID}/activate", h.ActivateChat)
		r.Post("/messages", h.SendMessage)
	})
}

// GetState returns the full client state snapshot.
func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates with the backend and loads the user's history.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if err := h.ctrl.Login(r.Context(), req.Username, req.Password); err != nil {
		Error(w, http.StatusUnauthorized, "login failed")
		return
	}
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Register creates an account and signs the user in.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if err := h.ctrl.Register(r.Context(), req.Username, req.Password); err != nil {
		Error(w, http.StatusUnauthorized, "registration failed")
		return
	}
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Logout clears the credential and resets the session collection.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Logout(r.Context())
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// RefreshHistory reloads the conversation history from the backend.
func (h *SessionHandler) RefreshHistory(w http.ResponseWriter, r *http.Request) {
	h.ctrl.LoadHistory(r.Context())
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// CreateChat starts a fresh conversation and makes it active.
func (h *SessionHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	h.ctrl.NewChat()
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// ActivateChat switches the active conversation.
func (h *SessionHandler) ActivateChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "session id is required")
		return
	}
	h.ctrl.SwitchChat(sessionID)
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage submits a message on the active conversation. Failures surface
// in the conversation itself and on the notification feed, so the response is
// always the resulting snapshot.
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		Error(w, http.StatusBadRequest, "message content is required")
		return
	}

	h.ctrl.SendMessage(r.Context(), req.Content)
	JSON(w, http.StatusOK, h.ctrl.Snapshot())
}
