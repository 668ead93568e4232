package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub(4, nil)
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Publish("schedule", map[string]string{"date": "2026-09-01"})

	for _, sub := range []*Subscriber{a, b} {
		select {
		case ev := <-sub.C:
			assert.Equal(t, "schedule", ev.Type)
			assert.NotZero(t, ev.TS)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestHubPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	hub := NewHub(1, nil)
	slow := hub.Subscribe()

	done := make(chan struct{})
	go func() {
		hub.Publish("schedule", nil)
		hub.Publish("schedule", nil)
		hub.Publish("schedule", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Equal(t, uint64(2), hub.Dropped())
	assert.Len(t, slow.C, 1)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(4, nil)
	sub := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-sub.C
	assert.False(t, open)

	// Second unsubscribe is a no-op, and publishing still works.
	hub.Unsubscribe(sub)
	hub.Publish("interrupt", nil)
}

func TestHubUnsubscribeDoesNotAffectPeers(t *testing.T) {
	hub := NewHub(4, nil)
	gone := hub.Subscribe()
	stays := hub.Subscribe()

	hub.Unsubscribe(gone)
	hub.Publish("pairing", "payload")

	select {
	case ev := <-stays.C:
		assert.Equal(t, "pairing", ev.Type)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber missed event")
	}
}
