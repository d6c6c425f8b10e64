// Package api exposes the session controller over HTTP for the chat UI.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/controller"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/notify"
)

// Handler provides common handler utilities.
type Handler struct {
	ctrl        *controller.Controller
	feed        *notify.Feed
	frontendURL string
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(ctrl *controller.Controller, feed *notify.Feed, frontendURL string) *Handler {
	return &Handler{
		ctrl:        ctrl,
		feed:        feed,
		frontendURL: frontendURL,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// isDevelopment returns true if running in development mode.
func (h *Handler) isDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
	return h.frontendURL == "" ||
		strings.Contains(h.frontendURL, "localhost") ||
		strings.Contains(h.frontendURL, "127.0.0.1")
}
