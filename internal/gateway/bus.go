package gateway

import "sync"

// Bus broadcasts credential invalidation to interested components. Publishing
// is fire-and-forget: a subscriber that has not drained its previous signal
// does not receive a duplicate, which collapses bursts of invalidations into
// one state reset.
type Bus struct {
	mu   sync.Mutex
	subs []chan struct{}
}

// NewBus creates an empty invalidation bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new listener. The returned channel carries one signal
// per pending invalidation and is never closed.
func (b *Bus) Subscribe() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan struct{}, 1)
	b.subs = append(b.subs, ch)
	return ch
}

// Invalidate signals every subscriber without blocking.
func (b *Bus) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
