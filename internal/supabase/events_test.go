package supabase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenerSetDeliversToAllSubscribers(t *testing.T) {
	set := newListenerSet()

	var first, second []Event

	set.add(func(event Event, _ *Session) { first = append(first, event) })
	set.add(func(event Event, _ *Session) { second = append(second, event) })

	set.emit(EventSignedIn, &Session{AccessToken: "at"})
	set.emit(EventUserUpdated, &Session{AccessToken: "at"})

	assert.Equal(t, []Event{EventSignedIn, EventUserUpdated}, first)
	assert.Equal(t, []Event{EventSignedIn, EventUserUpdated}, second)
}

func TestUnsubscribeStopsDeliveries(t *testing.T) {
	set := newListenerSet()

	var calls int

	unsubscribe := set.add(func(Event, *Session) { calls++ })

	set.emit(EventSignedIn, nil)
	assert.Equal(t, 1, calls)

	unsubscribe()

	set.emit(EventSignedOut, nil)
	set.emit(EventSignedIn, nil)
	assert.Equal(t, 1, calls)

	// unsubscribing twice is harmless
	unsubscribe()
}

func TestUnsubscribeOnlyRemovesOwnListener(t *testing.T) {
	set := newListenerSet()

	var kept, dropped int

	set.add(func(Event, *Session) { kept++ })
	unsubscribe := set.add(func(Event, *Session) { dropped++ })

	unsubscribe()
	set.emit(EventSignedIn, nil)

	assert.Equal(t, 1, kept)
	assert.Equal(t, 0, dropped)
}
