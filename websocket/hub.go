package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Registry binds live connections to per-user rooms. A room is a broadcast
// address keyed by user id; a user on several devices has several clients in
// the same room. Implementations are injected wherever room addressing is
// needed so tests can substitute doubles and deployments can layer a pub/sub
// backplane on top.
type Registry interface {
	Join(client *Client, userID uint)
	Leave(client *Client)
	EmitToUser(userID uint, event string, payload interface{}) bool
}

// Message represents a websocket frame
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of active clients and the user-id rooms they occupy
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Rooms mapping (userID -> clients)
	rooms map[uint]map[*Client]bool

	// Mutex for clients and rooms maps
	roomsMux sync.RWMutex

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[uint]map[*Client]bool),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.roomsMux.Lock()
			h.clients[client] = true
			h.roomsMux.Unlock()
		case client := <-h.unregister:
			h.roomsMux.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.removeFromRooms(client)
			}
			h.roomsMux.Unlock()
		}
	}
}

// Register adds a client to the hub's active set.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client, closing its send channel and leaving all
// rooms. No error if the client is already gone.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join adds a client to the room keyed by userID. Rejoining a room the
// client already occupies is a no-op, which makes reconnect handling simple.
func (h *Hub) Join(client *Client, userID uint) {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()

	if _, ok := h.rooms[userID]; !ok {
		h.rooms[userID] = make(map[*Client]bool)
	}
	h.rooms[userID][client] = true
}

// Leave removes a client from every room it occupies. Safe to call for a
// client that was already removed.
func (h *Hub) Leave(client *Client) {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()
	h.removeFromRooms(client)
}

// removeFromRooms must be called with roomsMux held.
func (h *Hub) removeFromRooms(client *Client) {
	for userID, clients := range h.rooms {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			// Clean up empty rooms
			if len(clients) == 0 {
				delete(h.rooms, userID)
			}
		}
	}
}

// EmitToUser sends an event frame to all live connections for that user.
// Returns false when no connection received it, in which case the caller is
// responsible for the push-notification fallback.
func (h *Hub) EmitToUser(userID uint, event string, payload interface{}) bool {
	msg := Message{Type: event, Payload: payload}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling %s event: %v", event, err)
		return false
	}
	return h.emitRaw(userID, msgBytes)
}

// emitRaw delivers a pre-encoded frame to the user's room. Per-client send
// channels preserve emission order within the room; a client whose buffer is
// full is dropped rather than allowed to stall the room.
func (h *Hub) emitRaw(userID uint, message []byte) bool {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()

	delivered := false
	if clients, ok := h.rooms[userID]; ok {
		for client := range clients {
			select {
			case client.send <- message:
				delivered = true
			default:
				close(client.send)
				delete(clients, client)
				delete(h.clients, client)
			}
		}
		if len(clients) == 0 {
			delete(h.rooms, userID)
		}
	}
	return delivered
}
