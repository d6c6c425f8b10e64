package credstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// mint builds an unsigned compact token with the given subject and expiry.
func mint(sub string, exp time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256"}`))
	payload := base64.RawURLEncoding.EncodeToString(
		[]byte(fmt.Sprintf(`{"sub":%q,"exp":%d}`, sub, exp.Unix())))
	return header + "." + payload + ".sig"
}

// drivers runs a subtest against each Store implementation.
func drivers(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		s := NewMemory()
		defer s.Close()
		fn(t, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLite(filepath.Join(t.TempDir(), "credentials.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

func TestSaveAndRead(t *testing.T) {
	drivers(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tok := mint("alice", time.Now().Add(time.Hour))

		if err := s.Save(ctx, tok, "alice"); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := s.Token(ctx)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		if got != tok {
			t.Errorf("Token = %q, want stored token", got)
		}

		username, err := s.Username(ctx)
		if err != nil {
			t.Fatalf("username: %v", err)
		}
		if username != "alice" {
			t.Errorf("Username = %q, want alice", username)
		}

		if !s.Authenticated(ctx) {
			t.Error("Authenticated = false with valid token stored")
		}
	})
}

func TestExpiredTokenSelfHeals(t *testing.T) {
	drivers(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tok := mint("alice", time.Now().Add(-time.Minute))

		if err := s.Save(ctx, tok, "alice"); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := s.Token(ctx)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		if got != "" {
			t.Errorf("Token = %q, want empty for expired credential", got)
		}

		// The expired read must have cleared the username too.
		username, err := s.Username(ctx)
		if err != nil {
			t.Fatalf("username: %v", err)
		}
		if username != "" {
			t.Errorf("Username = %q after self-heal, want empty", username)
		}
	})
}

func TestTokenInsideSkewWindowIsCleared(t *testing.T) {
	drivers(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		// Valid for 5 more seconds, but inside the 10s safety margin.
		tok := mint("alice", time.Now().Add(5*time.Second))

		if err := s.Save(ctx, tok, "alice"); err != nil {
			t.Fatalf("save: %v", err)
		}
		if got, _ := s.Token(ctx); got != "" {
			t.Errorf("Token = %q, want empty inside skew window", got)
		}
	})
}

func TestClearIsIdempotent(t *testing.T) {
	drivers(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Save(ctx, mint("alice", time.Now().Add(time.Hour)), "alice"); err != nil {
			t.Fatalf("save: %v", err)
		}

		if err := s.Clear(ctx); err != nil {
			t.Fatalf("first clear: %v", err)
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("second clear: %v", err)
		}

		if s.Authenticated(ctx) {
			t.Error("Authenticated = true after clear")
		}
	})
}

func TestEmptyStore(t *testing.T) {
	drivers(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if got, err := s.Token(ctx); err != nil || got != "" {
			t.Errorf("Token = (%q, %v), want empty", got, err)
		}
		if s.Authenticated(ctx) {
			t.Error("Authenticated = true on empty store")
		}
	})
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.db")
	tok := mint("alice", time.Now().Add(time.Hour))

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Save(ctx, tok, "alice"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Token(ctx)
	if err != nil {
		t.Fatalf("token after reopen: %v", err)
	}
	if got != tok {
		t.Error("credential did not survive reopen")
	}
}
