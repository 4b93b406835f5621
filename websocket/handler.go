package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pawpal/adoption_backend/apperrors"
	"github.com/pawpal/adoption_backend/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// EventHandler upgrades connections and dispatches the realtime event
// protocol to the domain services.
type EventHandler struct {
	hub      *Hub
	adoption *services.AdoptionService
	messages *services.MessageService
}

func NewEventHandler(hub *Hub, adoption *services.AdoptionService, messages *services.MessageService) *EventHandler {
	return &EventHandler{hub: hub, adoption: adoption, messages: messages}
}

// HandleConnection handles websocket connections
func (h *EventHandler) HandleConnection(c *gin.Context) {
	// The mobile client connects with io(url, { query: { userId } })
	userIDStr := c.Query("userId")
	if userIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("error upgrading connection: %v", err)
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: uint(userID),
		events: h,
	}

	h.hub.Register(client)
	// Every connection is addressable in its user's room from the start;
	// the explicit joinRoom event covers the reconnect path.
	h.hub.Join(client, client.userID)

	go client.readPump()
	go client.writePump()
}

type createRequestPayload struct {
	PetID       uint   `json:"petId"`
	UserID      uint   `json:"userId"`
	Description string `json:"description"`
}

type resolveRequestPayload struct {
	RequestID uint `json:"requestId"`
	Accepted  bool `json:"accepted"`
}

type sendMessagePayload struct {
	SenderID   uint   `json:"senderId"`
	ReceiverID uint   `json:"receiverId"`
	Content    string `json:"content"`
	CreatedAt  string `json:"createdAt"`
}

type ackError struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

type ackPayload struct {
	Event   string      `json:"event"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ackError   `json:"error,omitempty"`
}

// handleFrame processes an incoming frame. Operations accepted here run to
// completion even if the client disconnects mid-flight, so they carry a
// background context rather than one tied to the connection.
func (h *EventHandler) handleFrame(client *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("error unmarshaling frame: %v", err)
		return
	}

	switch msg.Type {
	case "joinRoom":
		h.handleJoinRoom(client, msg.Payload)
	case "createAdoptionRequest":
		var payload createRequestPayload
		if !decodePayload(client, msg, &payload) {
			return
		}
		request, err := h.adoption.Create(context.Background(), client.userID, payload.PetID, payload.Description)
		if err != nil {
			h.nack(client, msg.Type, err)
			return
		}
		h.ack(client, msg.Type, request)
	case "acceptAdoptionRequest":
		var payload resolveRequestPayload
		if !decodePayload(client, msg, &payload) {
			return
		}
		request, err := h.adoption.Resolve(context.Background(), client.userID, payload.RequestID, payload.Accepted)
		if err != nil {
			h.nack(client, msg.Type, err)
			return
		}
		h.ack(client, msg.Type, request)
	case "sendMessage":
		var payload sendMessagePayload
		if !decodePayload(client, msg, &payload) {
			return
		}
		// The sender identity comes from the connection, not the payload.
		message, err := h.messages.Send(context.Background(), client.userID, payload.ReceiverID, payload.Content)
		if err != nil {
			h.nack(client, msg.Type, err)
			return
		}
		h.ack(client, msg.Type, message)
	default:
		log.Printf("unknown event type %q from user %d", msg.Type, client.userID)
	}
}

// handleJoinRoom rebinds the connection to its user's room. The client emits
// its own user id; a connection can never join someone else's room.
func (h *EventHandler) handleJoinRoom(client *Client, payload interface{}) {
	var userID uint
	switch v := payload.(type) {
	case float64:
		userID = uint(v)
	case string:
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			h.nack(client, "joinRoom", apperrors.InvalidArg("invalid user id"))
			return
		}
		userID = uint(id)
	default:
		h.nack(client, "joinRoom", apperrors.InvalidArg("invalid joinRoom payload"))
		return
	}

	if userID != client.userID {
		h.nack(client, "joinRoom", apperrors.Forbidden("cannot join another user's room"))
		return
	}

	h.hub.Join(client, client.userID)
	h.ack(client, "joinRoom", nil)
}

func (h *EventHandler) disconnect(client *Client) {
	h.hub.Unregister(client)
}

func (h *EventHandler) ack(client *Client, event string, data interface{}) {
	h.sendFrame(client, Message{
		Type:    "ack",
		Payload: ackPayload{Event: event, Success: true, Data: data},
	})
}

func (h *EventHandler) nack(client *Client, event string, err error) {
	log.Printf("event %s from user %d failed: %v", event, client.userID, err)
	h.sendFrame(client, Message{
		Type: "ack",
		Payload: ackPayload{
			Event:   event,
			Success: false,
			Error:   &ackError{Code: apperrors.CodeOf(err), Message: err.Error()},
		},
	})
}

func (h *EventHandler) sendFrame(client *Client, msg Message) {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling frame: %v", err)
		return
	}
	select {
	case client.send <- msgBytes:
	default:
		log.Printf("dropping %s frame for user %d: send buffer full", msg.Type, client.userID)
	}
}

func decodePayload(client *Client, msg Message, out interface{}) bool {
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("error marshaling payload: %v", err)
		return false
	}
	if err := json.Unmarshal(payloadBytes, out); err != nil {
		log.Printf("error unmarshaling %s payload: %v", msg.Type, err)
		return false
	}
	return true
}
