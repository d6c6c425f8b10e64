// Package credstore persists the bearer credential and the authenticated
// identity across restarts.
//
// The store is the single source of truth for "who is logged in". Reads are
// self-healing: an expired token is cleared on the spot and reported as
// absent, so callers never have to remember to re-check expiry themselves.
package credstore

import (
	"context"
)

// Store holds the current credential and username.
type Store interface {
	// Save stores the credential and its subject, replacing any previous one.
	Save(ctx context.Context, token, username string) error

	// Clear removes the credential and username. Clearing an empty store is
	// not an error.
	Clear(ctx context.Context) error

	// Token returns the stored credential, or "" if none is stored. If the
	// stored credential is expired the store clears itself and returns "".
	Token(ctx context.Context) (string, error)

	// RawToken returns the stored credential without the expiry check. The
	// network gateway uses it to tell an absent credential apart from an
	// expired one.
	RawToken(ctx context.Context) (string, error)

	// Username returns the stored subject identity, or "" if none is stored.
	Username(ctx context.Context) (string, error)

	// Authenticated reports whether a usable credential is stored. It applies
	// the same self-healing read as Token.
	Authenticated(ctx context.Context) bool

	// Close releases any resources held by the store.
	Close() error
}

// Key names under which credential state is persisted.
const (
	keyToken    = "auth_token"
	keyUsername = "username"
)
