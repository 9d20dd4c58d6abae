package ws

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kimchunsik17/yacht-online/internal/gameserver"
)

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	id := uuid.New()

	events, unsubscribe := hub.Subscribe(id)
	defer unsubscribe()
	require.Equal(t, 1, hub.Subscribers(id))

	hub.Broadcast(id, gameserver.Event{Type: gameserver.EventCommentary, Text: "hi"})
	got := <-events
	assert.Equal(t, gameserver.EventCommentary, got.Type)
	assert.Equal(t, "hi", got.Text)
}

func TestHub_BroadcastIsScopedToMatch(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a, b := uuid.New(), uuid.New()

	eventsA, cancelA := hub.Subscribe(a)
	defer cancelA()
	_, cancelB := hub.Subscribe(b)
	defer cancelB()

	hub.Broadcast(b, gameserver.Event{Type: gameserver.EventCommentary, Text: "other"})
	select {
	case e := <-eventsA:
		t.Fatalf("subscriber of match A received %v for match B", e)
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(zap.NewNop())
	id := uuid.New()

	events, unsubscribe := hub.Subscribe(id)
	unsubscribe()
	assert.Equal(t, 0, hub.Subscribers(id))

	_, open := <-events
	assert.False(t, open, "unsubscribing closes the event channel")

	unsubscribe() // safe to call twice
}

func TestHub_DropsStalledSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())
	id := uuid.New()

	_, unsubscribe := hub.Subscribe(id)
	defer unsubscribe()

	// Never drain; the queue fills and the hub must evict rather than block.
	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Broadcast(id, gameserver.Event{Type: gameserver.EventCommentary, Text: "spam"})
	}
	assert.Equal(t, 0, hub.Subscribers(id))
}
