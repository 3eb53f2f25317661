package http

import (
	"context"
	"log"
	"sync"

	"trivia-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// RoomPresence mirrors room membership into an external store (Redis) so
// liveness survives beyond one process. It is optional; a nil presence keeps
// rooms purely in-memory.
type RoomPresence interface {
	Create(ctx context.Context, roomID string) error
	Join(ctx context.Context, roomID, connID string) error
	Leave(ctx context.Context, roomID, connID string) error
}

// Hub tracks connected websocket clients and their room membership. Rooms
// scope broadcast fan-out only; they never touch round state.
type Hub struct {
	presence RoomPresence

	mu      sync.RWMutex
	clients map[string]chan<- outboundMessage
	rooms   map[string]map[string]struct{}
}

func NewHub(presence RoomPresence) *Hub {
	return &Hub{
		presence: presence,
		clients:  make(map[string]chan<- outboundMessage),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// Register adds a connection's send channel to the hub.
func (h *Hub) Register(connID string, send chan<- outboundMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connID] = send
}

// Unregister drops a connection and removes it from every room it joined.
func (h *Hub) Unregister(ctx context.Context, connID string) {
	h.mu.Lock()
	delete(h.clients, connID)
	var left []string
	for roomID, members := range h.rooms {
		if _, ok := members[connID]; ok {
			delete(members, connID)
			left = append(left, roomID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()

	if h.presence != nil {
		for _, roomID := range left {
			if err := h.presence.Leave(ctx, roomID, connID); err != nil {
				log.Printf("room presence leave failed: %v", err)
			}
		}
	}
}

// CreateRoom mints a new room id and joins the creator to it.
func (h *Hub) CreateRoom(ctx context.Context, connID string) (string, error) {
	roomID := uuid.NewString()
	if h.presence != nil {
		if err := h.presence.Create(ctx, roomID); err != nil {
			return "", err
		}
	}
	h.mu.Lock()
	h.rooms[roomID] = map[string]struct{}{connID: {}}
	h.mu.Unlock()
	if h.presence != nil {
		if err := h.presence.Join(ctx, roomID, connID); err != nil {
			log.Printf("room presence join failed: %v", err)
		}
	}
	return roomID, nil
}

// JoinRoom adds a connection to an existing room.
func (h *Hub) JoinRoom(ctx context.Context, roomID, connID string) error {
	h.mu.Lock()
	members, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	members[connID] = struct{}{}
	h.mu.Unlock()

	if h.presence != nil {
		if err := h.presence.Join(ctx, roomID, connID); err != nil {
			log.Printf("room presence join failed: %v", err)
		}
	}
	return nil
}

// Broadcast fans a message out to every connected client.
func (h *Hub) Broadcast(msg outboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		deliver(send, msg)
	}
}

// SendToRoom fans a message out to a room's members.
func (h *Hub) SendToRoom(roomID string, msg outboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[roomID] {
		if send, ok := h.clients[connID]; ok {
			deliver(send, msg)
		}
	}
}

// deliver never blocks the hub on a slow client; a full send buffer drops
// the message.
func deliver(send chan<- outboundMessage, msg outboundMessage) {
	select {
	case send <- msg:
	default:
	}
}
