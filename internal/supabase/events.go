package supabase

import "sync"

// Event is one entry of the provider's auth state change feed.
type Event string

const (
	// EventSignedIn fires after a session was established.
	EventSignedIn Event = "SIGNED_IN"

	// EventSignedOut fires after a sign-out, before any provider error is
	// reported to the caller.
	EventSignedOut Event = "SIGNED_OUT"

	// EventUserUpdated fires after the user record changed.
	EventUserUpdated Event = "USER_UPDATED"

	// EventPasswordRecovery fires when a recovery token was redeemed.
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
)

// ListenerFunc receives auth state change events. The session is nil for
// EventSignedOut.
type ListenerFunc func(event Event, session *Session)

// listenerSet is the registry behind OnAuthStateChange. Deliveries are
// synchronous and run on the calling goroutine.
type listenerSet struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]ListenerFunc
}

func newListenerSet() *listenerSet {
	return &listenerSet{subs: make(map[int]ListenerFunc)}
}

func (l *listenerSet) add(fn ListenerFunc) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *listenerSet) emit(event Event, session *Session) {
	l.mu.RLock()
	fns := make([]ListenerFunc, 0, len(l.subs))

	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// OnAuthStateChange subscribes to the auth state change feed of this
// client. The returned function removes the subscription; callers must
// invoke it on teardown or the listener keeps firing.
func (c *Client) OnAuthStateChange(fn ListenerFunc) (unsubscribe func()) {
	return c.listeners.add(fn)
}
