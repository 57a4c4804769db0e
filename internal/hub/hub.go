// Package hub implements the realtime fan-out layer: rooms keyed by share
// code, ephemeral in-memory membership, and fire-and-forget event delivery.
// Nothing here survives a restart; clients reconnect and re-fetch.
package hub

import (
	"encoding/json"
	"log"
	"sync"

	"tripsync/internal/domain"
)

// DefaultSendBuffer is the per-client outbound queue depth. A client that
// falls this far behind starts losing frames, matching the
// no-delivery-guarantee model.
const DefaultSendBuffer = 16

// Message is the wire envelope for every server-to-client event.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub tracks which clients are subscribed to which trip rooms and fans out
// events to them. All state is in-memory and per-process.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	sendBuffer int
}

// New creates an empty Hub.
func New(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		sendBuffer: sendBuffer,
	}
}

// Join subscribes a client to a trip room and notifies the room of the new
// member count.
func (h *Hub) Join(client *Client, shareCode string) {
	h.mu.Lock()
	room, ok := h.rooms[shareCode]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[shareCode] = room
	}
	room[client] = struct{}{}
	count := len(room)
	h.mu.Unlock()

	client.addRoom(shareCode)
	h.Publish(shareCode, domain.EventRoomMembers, memberCountPayload{Members: count})
}

// Leave unsubscribes a client from a trip room.
func (h *Hub) Leave(client *Client, shareCode string) {
	h.mu.Lock()
	count, removed := h.removeLocked(client, shareCode)
	h.mu.Unlock()

	client.removeRoom(shareCode)
	if removed {
		h.Publish(shareCode, domain.EventRoomMembers, memberCountPayload{Members: count})
	}
}

// Disconnect drops the client from every room it joined. Called once when
// the connection dies; membership simply vanishes.
func (h *Hub) Disconnect(client *Client) {
	codes := client.roomList()

	h.mu.Lock()
	counts := make(map[string]int, len(codes))
	for _, code := range codes {
		if count, removed := h.removeLocked(client, code); removed {
			counts[code] = count
		}
	}
	h.mu.Unlock()

	for code, count := range counts {
		h.Publish(code, domain.EventRoomMembers, memberCountPayload{Members: count})
	}
}

// removeLocked drops the client from one room. Caller holds h.mu.
func (h *Hub) removeLocked(client *Client, shareCode string) (int, bool) {
	room, ok := h.rooms[shareCode]
	if !ok {
		return 0, false
	}
	if _, member := room[client]; !member {
		return 0, false
	}
	delete(room, client)
	count := len(room)
	if count == 0 {
		delete(h.rooms, shareCode)
	}
	return count, true
}

// MemberCount returns the number of current subscribers of a room.
func (h *Hub) MemberCount(shareCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[shareCode])
}

// Publish fans an event out to every current member of a room. It never
// blocks on a slow client and never reports an error: delivery is
// best-effort by contract.
func (h *Hub) Publish(shareCode, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("hub: marshal %s payload: %v", event, err)
		return
	}
	frame, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Printf("hub: marshal %s frame: %v", event, err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[shareCode]))
	for client := range h.rooms[shareCode] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		client.enqueue(frame)
	}
}

type memberCountPayload struct {
	Members int `json:"members"`
}
