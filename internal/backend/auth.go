package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/gateway"
)

// AuthClient talks to the credential-issuing service. Login and registration
// share one response shape, so both are thin wrappers over issue.
type AuthClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewAuthClient creates a credential service client. The HTTP client should
// come from the gateway so issuance calls share its interceptors.
func NewAuthClient(baseURL string, client *http.Client, logger *slog.Logger) *AuthClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthClient{baseURL: baseURL, client: client, logger: logger}
}

// Login exchanges a username and password for a credential.
func (c *AuthClient) Login(ctx context.Context, username, password string) (Credential, error) {
	return c.issue(ctx, "/api/auth/login", username, password)
}

// Register creates an account and returns its first credential.
func (c *AuthClient) Register(ctx context.Context, username, password string) (Credential, error) {
	return c.issue(ctx, "/api/auth/register", username, password)
}

func (c *AuthClient) issue(ctx context.Context, path, username, password string) (Credential, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return Credential{}, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Credential{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Credential{}, classifyTransportErr("issue credential", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Info("credential issue refused", "path", path, "status", resp.StatusCode)
		return Credential{}, fmt.Errorf("issue credential: status %d: %w", resp.StatusCode, gateway.ErrRejected)
	}

	var cred Credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	if cred.Token == "" {
		return Credential{}, fmt.Errorf("issue credential: empty token in response")
	}
	return cred, nil
}

// classifyTransportErr keeps gateway sentinels intact and folds everything
// else into ErrUnavailable.
func classifyTransportErr(op string, err error) error {
	if errors.Is(err, gateway.ErrUnauthenticated) || errors.Is(err, gateway.ErrTokenExpired) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, gateway.ErrUnavailable)
}
