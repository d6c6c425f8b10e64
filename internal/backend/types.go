// Package backend provides typed clients for the two remote services the chat
// core depends on: the credential-issuing service and the assistant message
// service. All requests go through the gateway transport, which owns
// credential attachment and invalidation.
package backend

import (
	"time"
)

// Credential is the result of a successful login or registration.
type Credential struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Reply is the assistant's answer to one message.
type Reply struct {
	Text       string
	Intent     string
	Confidence float64
	Timestamp  time.Time
}

// Exchange is one historical question/answer pair. The service returns
// exchanges newest-first.
type Exchange struct {
	ID        int64
	Query     string
	Reply     string
	Intent    string
	Timestamp time.Time
}

// timestampLayouts covers the formats the backend has been observed to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp is deliberately forgiving: a missing or unparseable server
// timestamp falls back to the local clock rather than failing the exchange.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}
