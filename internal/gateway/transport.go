package gateway

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/credstore"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/token"
)

// Gateway builds HTTP clients whose requests carry the current credential and
// whose authorization failures feed the invalidation bus.
type Gateway struct {
	creds  credstore.Store
	bus    *Bus
	skew   time.Duration
	base   http.RoundTripper
	logger *slog.Logger
}

// New creates a gateway over the given credential store and invalidation bus.
func New(creds credstore.Store, bus *Bus, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		creds:  creds,
		bus:    bus,
		skew:   token.DefaultSkew,
		base:   http.DefaultTransport,
		logger: logger,
	}
}

// SetBase overrides the underlying transport. Tests use it to observe whether
// a request reached the wire.
func (g *Gateway) SetBase(rt http.RoundTripper) {
	g.base = rt
}

// Client returns an HTTP client bound to the gateway's transport. The timeout
// bounds each call end to end; the credential service uses a shorter bound
// than the assistant, whose replies take longer to generate.
func (g *Gateway) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &authTransport{gw: g},
		Timeout:   timeout,
	}
}

// isPublic reports whether the endpoint may be called without a credential:
// credential issuance and the health check.
func isPublic(path string) bool {
	return strings.Contains(path, "/auth/") || strings.Contains(path, "/health")
}

// authTransport implements the outbound and inbound interceptors.
type authTransport struct {
	gw *Gateway
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	g := t.gw
	ctx := req.Context()
	public := isPublic(req.URL.Path)

	tok, err := g.creds.RawToken(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case tok == "":
		if !public {
			// Reject locally: a protected call without a credential can
			// never succeed, so skip the round-trip entirely.
			g.logger.Debug("rejecting protected request without token", "path", req.URL.Path)
			return nil, ErrUnauthenticated
		}
	case token.IsExpired(tok, g.skew):
		g.logger.Info("request carries expired token, clearing credential", "path", req.URL.Path)
		if err := g.creds.Clear(ctx); err != nil {
			g.logger.Warn("failed to clear expired credential", "error", err)
		}
		g.bus.Invalidate()
		if !public {
			return nil, ErrTokenExpired
		}
	default:
		req = req.Clone(ctx)
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := g.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		g.logger.Info("authorization failure from server, clearing credential",
			"path", req.URL.Path, "status", resp.StatusCode)
		if err := g.creds.Clear(ctx); err != nil {
			g.logger.Warn("failed to clear rejected credential", "error", err)
		}
		g.bus.Invalidate()
	}

	return resp, nil
}
