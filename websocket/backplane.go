package websocket

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const backplaneChannel = "realtime:rooms"

// Backplane layers Redis pub/sub over a local Hub so room emissions reach
// users connected to other instances. It satisfies the same Registry
// contract as the Hub it wraps.
type Backplane struct {
	hub        *Hub
	rdb        *redis.Client
	instanceID string
}

type backplaneEnvelope struct {
	Instance string          `json:"instance"`
	UserID   uint            `json:"userId"`
	Frame    json.RawMessage `json:"frame"`
}

// NewBackplane wraps hub with a Redis fan-out. Subscribe starts immediately;
// the returned Backplane should replace the hub as the Registry handed to
// services.
func NewBackplane(ctx context.Context, hub *Hub, rdb *redis.Client) (*Backplane, error) {
	idBytes := make([]byte, 8)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}

	b := &Backplane{
		hub:        hub,
		rdb:        rdb,
		instanceID: hex.EncodeToString(idBytes),
	}

	sub := rdb.Subscribe(ctx, backplaneChannel)
	// Force the subscription to be established before returning.
	if _, err := sub.Receive(ctx); err != nil {
		return nil, err
	}
	go b.relay(ctx, sub)

	return b, nil
}

func (b *Backplane) Join(client *Client, userID uint) { b.hub.Join(client, userID) }
func (b *Backplane) Leave(client *Client)             { b.hub.Leave(client) }

// EmitToUser emits locally and publishes the frame for the other instances.
// The returned delivery flag reflects local connections only; a user who is
// live elsewhere may receive both the relayed frame and a push notification,
// which is accepted as benign duplication.
func (b *Backplane) EmitToUser(userID uint, event string, payload interface{}) bool {
	msg := Message{Type: event, Payload: payload}
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling %s event: %v", event, err)
		return false
	}

	delivered := b.hub.emitRaw(userID, frame)

	envelope, err := json.Marshal(backplaneEnvelope{
		Instance: b.instanceID,
		UserID:   userID,
		Frame:    frame,
	})
	if err != nil {
		log.Printf("error marshaling backplane envelope: %v", err)
		return delivered
	}
	if err := b.rdb.Publish(context.Background(), backplaneChannel, envelope).Err(); err != nil {
		log.Printf("error publishing to backplane: %v", err)
	}

	return delivered
}

func (b *Backplane) relay(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var envelope backplaneEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				log.Printf("error unmarshaling backplane envelope: %v", err)
				continue
			}
			// Frames we published ourselves were already emitted locally.
			if envelope.Instance == b.instanceID {
				continue
			}
			b.hub.emitRaw(envelope.UserID, envelope.Frame)
		}
	}
}
