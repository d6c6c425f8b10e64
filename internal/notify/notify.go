// Package notify carries user-facing notification events from the session
// controller to whatever presentation layer is attached. The core only emits
// the signal; rendering (toasts, badges) is the consumer's business.
package notify

import "sync"

// Severity classifies a notification for the presentation layer.
type Severity string

// Notification severities.
const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notification is one user-facing event.
type Notification struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Severity Severity `json:"severity"`
}

// Feed fans notifications out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event rather than stalling the
// controller.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Notification
}

// NewFeed creates an empty notification feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Notification)}
}

// Subscribe registers a listener with the given buffer size and returns the
// channel plus an unsubscribe function. The channel is closed on unsubscribe.
func (f *Feed) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer < 1 {
		buffer = 1
	}

	f.mu.Lock()
	id := f.next
	f.next++
	ch := make(chan Notification, buffer)
	f.subs[id] = ch
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the notification to every subscriber that can take it.
func (f *Feed) Publish(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- n:
		default:
		}
	}
}
