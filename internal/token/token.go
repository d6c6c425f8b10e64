// Package token decodes and time-validates bearer tokens on the client side.
//
// The client never verifies signatures; it only inspects the payload to decide
// whether a stored token is still worth presenting to the backend. Anything
// that cannot be decoded is treated as expired: logging a user out is always
// safe, trusting a malformed token is not.
package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// DefaultSkew is subtracted from a token's lifetime so the client stops using
// it slightly before the server would reject it.
const DefaultSkew = 10 * time.Second

// Claims is the decoded token payload.
type Claims struct {
	Sub string `json:"sub,omitempty"`
	Exp int64  `json:"exp,omitempty"`
	Iat int64  `json:"iat,omitempty"`
	Iss string `json:"iss,omitempty"`
}

// now is swapped out in tests.
var now = time.Now

// Decode splits a compact token into its three dot-separated segments and
// parses the base64url payload segment. It reports false for any malformed
// input and never panics.
func Decode(tok string) (*Claims, bool) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, false
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, false
	}
	return &claims, true
}

// IsExpired reports whether the token should no longer be presented to the
// backend. Undecodable tokens and tokens without an expiry claim count as
// expired.
func IsExpired(tok string, skew time.Duration) bool {
	claims, ok := Decode(tok)
	if !ok || claims.Exp == 0 {
		return true
	}
	return claims.Exp <= now().Add(skew).Unix()
}

// Remaining returns the time until the token's expiry. It reports false when
// the token cannot be decoded or carries no expiry claim.
func Remaining(tok string) (time.Duration, bool) {
	claims, ok := Decode(tok)
	if !ok || claims.Exp == 0 {
		return 0, false
	}
	return time.Unix(claims.Exp, 0).Sub(now()), true
}
