package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hiimjupter/ris-api/internal/enum"
	"github.com/hiimjupter/ris-api/internal/events"
)

// Room groups the terminals that care about the same events.
type Room string

const (
	RoomKitchen Room = "kitchen"
	RoomFloor   Room = "floor"
)

// RoomFor returns the room a staff role listens in.
func RoomFor(role enum.Role) (Room, bool) {
	switch role {
	case enum.RoleChef:
		return RoomKitchen, true
	case enum.RoleWaiter, enum.RoleManager:
		return RoomFloor, true
	}
	return "", false
}

// routes lists the rooms each event type is delivered to.
var routes = map[string][]Room{
	events.TypeOrderCreated:       {RoomKitchen, RoomFloor},
	events.TypeOrderServed:        {RoomKitchen, RoomFloor},
	events.TypeDishStatusChanged:  {RoomKitchen, RoomFloor},
	events.TypeTableStatusChanged: {RoomFloor},
}

// roomEvent is an internal struct for routing events to one room
type roomEvent struct {
	Room  Room
	Event events.Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by room
	rooms map[Room]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *roomEvent

	// Closed when Run returns
	done chan struct{}

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[Room]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop until ctx is done.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(ev.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[ev.Room] {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, drop it
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops a client and closes its send channel. Caller holds h.mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	// Clean up empty rooms
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.remove(client)
		}
	}
}

// BroadcastToRoom sends an event to all clients in a room.
func (h *Hub) BroadcastToRoom(ctx context.Context, room Room, e events.Event) error {
	select {
	case h.broadcast <- &roomEvent{Room: room, Event: e}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish implements events.Publisher by fanning e out to its rooms.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	for _, room := range routes[e.Type] {
		if err := h.BroadcastToRoom(ctx, room, e); err != nil {
			return err
		}
	}
	return nil
}

// Clients reports how many clients are connected to room.
func (h *Hub) Clients(room Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
