// Package gateway is the sole path between the client core and the remote
// services. It attaches the bearer credential to outbound requests, rejects
// doomed requests locally, and turns server-side credential rejections into a
// process-wide invalidation signal.
package gateway

import "errors"

// Credential and transport failure categories surfaced to callers.
var (
	// ErrUnauthenticated means no credential is present for a protected call.
	ErrUnauthenticated = errors.New("no authentication token")

	// ErrTokenExpired means a credential was present but stale. Malformed
	// tokens fall into this category as well.
	ErrTokenExpired = errors.New("token expired")

	// ErrRejected means the remote service refused the credential.
	ErrRejected = errors.New("credential rejected")

	// ErrUnavailable means the remote service could not be reached.
	ErrUnavailable = errors.New("service unavailable")
)
