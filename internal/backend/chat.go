package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/gateway"
)

// ChatClient talks to the assistant message service.
type ChatClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewChatClient creates a message service client. The HTTP client should come
// from the gateway with the longer assistant timeout: reply generation is
// slower than credential issuance.
func NewChatClient(baseURL string, client *http.Client, logger *slog.Logger) *ChatClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatClient{baseURL: baseURL, client: client, logger: logger}
}

type sendRequest struct {
	Message string `json:"message"`
}

type sendResponse struct {
	Reply      string  `json:"reply"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}

// Send submits one user message and returns the assistant's reply.
func (c *ChatClient) Send(ctx context.Context, message string) (Reply, error) {
	body, err := json.Marshal(sendRequest{Message: message})
	if err != nil {
		return Reply{}, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Reply{}, classifyTransportErr("send message", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return Reply{}, fmt.Errorf("send message: status %d: %w", resp.StatusCode, gateway.ErrRejected)
		}
		return Reply{}, fmt.Errorf("send message: status %d: %w", resp.StatusCode, gateway.ErrUnavailable)
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}

	return Reply{
		Text:       out.Reply,
		Intent:     out.Intent,
		Confidence: out.Confidence,
		Timestamp:  parseTimestamp(out.Timestamp),
	}, nil
}

type historyItem struct {
	ID        int64  `json:"id"`
	Query     string `json:"query"`
	Reply     string `json:"reply"`
	Intent    string `json:"intent"`
	Timestamp string `json:"timestamp"`
}

// History returns the user's past exchanges, newest-first.
func (c *ChatClient) History(ctx context.Context, username string) ([]Exchange, error) {
	endpoint := c.baseURL + "/api/history/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportErr("load history", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("load history: status %d: %w", resp.StatusCode, gateway.ErrRejected)
		}
		return nil, fmt.Errorf("load history: status %d: %w", resp.StatusCode, gateway.ErrUnavailable)
	}

	var items []historyItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	exchanges := make([]Exchange, 0, len(items))
	for _, it := range items {
		exchanges = append(exchanges, Exchange{
			ID:        it.ID,
			Query:     it.Query,
			Reply:     it.Reply,
			Intent:    it.Intent,
			Timestamp: parseTimestamp(it.Timestamp),
		})
	}
	return exchanges, nil
}

// Health checks whether the message service is reachable.
func (c *ChatClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportErr("health check", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: status %d: %w", resp.StatusCode, gateway.ErrUnavailable)
	}
	return nil
}
