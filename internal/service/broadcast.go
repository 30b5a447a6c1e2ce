package service

import (
	"sync"

	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
)

// Observer receives the full AuthState snapshot after every state change.
type Observer func(domainauth.AuthState)

// broadcaster is an ordered subscriber registry. Notification is synchronous
// and runs in registration order; the observer list is snapshotted before a
// pass, so unsubscribing mid-notification never affects that pass.
type broadcaster struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

type subscription struct {
	id uint64
	fn Observer
}

func newBroadcaster() *broadcaster {
	return &broadcaster{}
}

// subscribe registers an observer and returns its unsubscribe function.
// Unsubscribing more than once is harmless.
func (b *broadcaster) subscribe(fn Observer) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// notify invokes every currently registered observer with the snapshot.
// The lock is released before observers run so that an observer may
// subscribe or unsubscribe without deadlocking.
func (b *broadcaster) notify(state domainauth.AuthState) {
	b.mu.Lock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		s.fn(state)
	}
}
