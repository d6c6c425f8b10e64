package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// eventBuffer bounds how many notifications a slow client can fall behind
// before it starts missing events.
const eventBuffer = 16

// EventsHandler streams notification events to the UI over WebSocket.
type EventsHandler struct {
	*Handler
	allowedOrigin string
	isDev         bool
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(base *Handler, allowedOrigin string, isDev bool) *EventsHandler {
	return &EventsHandler{
		Handler:       base,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("Events WebSocket connection request", "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed closed"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	events, cancel := h.feed.Subscribe(eventBuffer)
	defer cancel()

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	// Drain reads so close frames and pings are processed; the feed is
	// one-directional, anything the client sends is ignored.
	go func() {
		defer cancelCtx()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			if err := h.writeJSON(ctx, ws, n); err != nil {
				slog.Debug("Failed to write notification", "error", err)
				return
			}
		}
	}
}

func (h *EventsHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

// checkOrigin validates the WebSocket origin against the configured frontend.
func (h *EventsHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
