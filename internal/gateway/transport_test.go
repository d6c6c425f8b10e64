package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/credstore"
)

func mint(sub string, exp time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256"}`))
	payload := base64.RawURLEncoding.EncodeToString(
		[]byte(fmt.Sprintf(`{"sub":%q,"exp":%d}`, sub, exp.Unix())))
	return header + "." + payload + ".sig"
}

// countingTransport wraps a RoundTripper and counts wire calls.
type countingTransport struct {
	base  http.RoundTripper
	calls atomic.Int64
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.base.RoundTrip(req)
}

func signaled(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func newTestGateway(t *testing.T, handler http.Handler) (*Gateway, *credstore.MemoryStore, <-chan struct{}, *countingTransport, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	creds := credstore.NewMemory()
	bus := NewBus()
	sub := bus.Subscribe()

	gw := New(creds, bus, nil)
	counting := &countingTransport{base: http.DefaultTransport}
	gw.SetBase(counting)

	return gw, creds, sub, counting, srv.URL
}

func TestProtectedRequestWithoutTokenRejectedLocally(t *testing.T) {
	gw, _, sub, counting, url := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	client := gw.Client(5 * time.Second)
	_, err := client.Post(url+"/api/chat", "application/json", nil)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if got := counting.calls.Load(); got != 0 {
		t.Errorf("request reached the wire %d times, want 0", got)
	}
	if signaled(sub) {
		t.Error("missing credential must not broadcast invalidation")
	}
}

func TestProtectedRequestWithExpiredTokenClearsAndSignals(t *testing.T) {
	gw, creds, sub, counting, url := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()
	if err := creds.Save(ctx, mint("alice", time.Now().Add(-time.Minute)), "alice"); err != nil {
		t.Fatalf("save: %v", err)
	}

	client := gw.Client(5 * time.Second)
	_, err := client.Post(url+"/api/chat", "application/json", nil)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
	if got := counting.calls.Load(); got != 0 {
		t.Errorf("request reached the wire %d times, want 0", got)
	}
	if !signaled(sub) {
		t.Error("expired token must broadcast invalidation")
	}
	if tok, _ := creds.RawToken(ctx); tok != "" {
		t.Error("expired token must be cleared")
	}
}

func TestPublicEndpointPassesWithoutToken(t *testing.T) {
	var gotAuth string
	gw, _, _, counting, url := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))

	client := gw.Client(5 * time.Second)
	resp, err := client.Post(url+"/api/auth/login", "application/json", nil)
	if err != nil {
		t.Fatalf("login call failed: %v", err)
	}
	resp.Body.Close()

	if counting.calls.Load() != 1 {
		t.Error("public endpoint should reach the wire")
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty without credential", gotAuth)
	}
}

func TestPublicEndpointPassesWithExpiredToken(t *testing.T) {
	gw, creds, sub, _, url := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ctx := context.Background()
	if err := creds.Save(ctx, mint("alice", time.Now().Add(-time.Minute)), "alice"); err != nil {
		t.Fatalf("save: %v", err)
	}

	client := gw.Client(5 * time.Second)
	resp, err := client.Post(url+"/api/auth/login", "application/json", nil)
	if err != nil {
		t.Fatalf("login call failed: %v", err)
	}
	resp.Body.Close()

	// The stale credential is still cleared and signaled, but login proceeds.
	if !signaled(sub) {
		t.Error("expired token must broadcast invalidation even on public endpoints")
	}
	if tok, _ := creds.RawToken(ctx); tok != "" {
		t.Error("expired token must be cleared")
	}
}

func TestValidTokenAttached(t *testing.T) {
	var gotAuth string
	gw, creds, _, _, url := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))

	tok := mint("alice", time.Now().Add(time.Hour))
	if err := creds.Save(context.Background(), tok, "alice"); err != nil {
		t.Fatalf("save: %v", err)
	}

	client := gw.Client(5 * time.Second)
	resp, err := client.Post(url+"/api/chat", "application/json", nil)
	if err != nil {
		t.Fatalf("chat call failed: %v", err)
	}
	resp.Body.Close()

	if want := "Bearer " + tok; gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}
}

func TestServerRejectionClearsAndSignals(t *testing.T) {
	gw, creds, sub, _, url := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	ctx := context.Background()
	if err := creds.Save(ctx, mint("alice", time.Now().Add(time.Hour)), "alice"); err != nil {
		t.Fatalf("save: %v", err)
	}

	client := gw.Client(5 * time.Second)
	resp, err := client.Post(url+"/api/chat", "application/json", nil)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	defer resp.Body.Close()

	// The original failure still reaches the caller.
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if !signaled(sub) {
		t.Error("server rejection must broadcast invalidation")
	}
	if tok, _ := creds.RawToken(ctx); tok != "" {
		t.Error("rejected credential must be cleared")
	}
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Invalidate()

	if !signaled(a) || !signaled(b) {
		t.Error("all subscribers should receive the signal")
	}
}

func TestBusCollapsesBursts(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()

	bus.Invalidate()
	bus.Invalidate()
	bus.Invalidate()

	if !signaled(sub) {
		t.Fatal("expected a pending signal")
	}
	if signaled(sub) {
		t.Error("burst should collapse into a single pending signal")
	}
}
