// Package ws is the real-time transport: a chi router with one WebSocket
// endpoint per match, a per-match subscriber hub, and the JSON action/event
// wire format.
package ws

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kimchunsik17/yacht-online/internal/gameserver"
)

// subscriberBuffer bounds each subscriber's outbound queue. A subscriber
// that cannot keep up is dropped rather than allowed to stall the match.
const subscriberBuffer = 32

// subscriber is one connected client's outbound event queue.
type subscriber struct {
	events chan gameserver.Event
}

// Hub fans match events out to that match's subscribers. Broadcasts never
// block: slow subscribers are disconnected.
type Hub struct {
	logger *zap.Logger

	mu    sync.Mutex
	rooms map[uuid.UUID]map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[uuid.UUID]map[*subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber for a match and returns its event
// channel plus an unsubscribe function.
func (h *Hub) Subscribe(matchID uuid.UUID) (<-chan gameserver.Event, func()) {
	sub := &subscriber{events: make(chan gameserver.Event, subscriberBuffer)}

	h.mu.Lock()
	room, ok := h.rooms[matchID]
	if !ok {
		room = make(map[*subscriber]struct{})
		h.rooms[matchID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()

	return sub.events, func() { h.drop(matchID, sub) }
}

// Broadcast delivers an event to every subscriber of a match. Satisfies the
// match handler's broadcast function signature.
//
// Postcondition: never blocks; subscribers with full queues are dropped.
func (h *Hub) Broadcast(matchID uuid.UUID, event gameserver.Event) {
	h.mu.Lock()
	var stalled []*subscriber
	for sub := range h.rooms[matchID] {
		select {
		case sub.events <- event:
		default:
			stalled = append(stalled, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range stalled {
		h.logger.Warn("dropping stalled subscriber",
			zap.String("match_id", matchID.String()))
		h.drop(matchID, sub)
	}
}

// drop removes a subscriber and closes its channel.
func (h *Hub) drop(matchID uuid.UUID, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[matchID]
	if !ok {
		return
	}
	if _, present := room[sub]; !present {
		return
	}
	delete(room, sub)
	close(sub.events)
	if len(room) == 0 {
		delete(h.rooms, matchID)
	}
}

// Subscribers returns the subscriber count for a match.
func (h *Hub) Subscribers(matchID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[matchID])
}
