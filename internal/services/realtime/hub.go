package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber is one connected client. Send is drained by the connection's
// write loop; the hub never blocks on it.
type Subscriber struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Send   chan []byte
}

func NewSubscriber(userID uuid.UUID, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 64
	}
	return &Subscriber{
		ID:     uuid.New(),
		UserID: userID,
		Send:   make(chan []byte, buffer),
	}
}

// Hub keeps the local membership of match rooms.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uuid.UUID]map[*Subscriber]struct{})}
}

func (h *Hub) Join(matchID uuid.UUID, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[matchID]
	if !ok {
		room = make(map[*Subscriber]struct{})
		h.rooms[matchID] = room
	}
	room[sub] = struct{}{}
}

func (h *Hub) Leave(matchID uuid.UUID, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(matchID, sub)
}

// LeaveAll drops sub from every room, used when its connection ends.
func (h *Hub) LeaveAll(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for matchID := range h.rooms {
		h.leaveLocked(matchID, sub)
	}
}

func (h *Hub) leaveLocked(matchID uuid.UUID, sub *Subscriber) {
	room, ok := h.rooms[matchID]
	if !ok {
		return
	}
	delete(room, sub)
	if len(room) == 0 {
		delete(h.rooms, matchID)
	}
}

// Broadcast hands payload to every local member of the room and returns how
// many accepted it. Members with a full buffer miss the frame.
func (h *Hub) Broadcast(matchID uuid.UUID, payload []byte) (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.rooms[matchID] {
		select {
		case sub.Send <- payload:
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped
}

// CloseRoom forgets every member of the room.
func (h *Hub) CloseRoom(matchID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms, matchID)
}

func (h *Hub) InRoom(matchID uuid.UUID, sub *Subscriber) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.rooms[matchID][sub]
	return ok
}
