package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/nearbuyapp/api-nearbuy/internal/model"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "nearbuy:alerts"

// Hub fans fired alerts out to the owning user's open websocket
// connections. Events go through Redis Pub/Sub so every instance
// delivers to the clients it holds, regardless of which instance fired
// the alert.
type Hub struct {
	// Map of userID -> set of client connections (one user can have multiple devices)
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	rdb *redis.Client
}

// TargetedEvent wraps an event with its destination user for transport
// over Redis
type TargetedEvent struct {
	TargetUserID uuid.UUID     `json:"target_user_id"`
	Event        model.WSEvent `json:"event"`
}

// NewHub creates a new alert-feed hub
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	log.Printf("✅ Feed client connected: %s (connections: %d)", client.UserID, len(h.clients[client.UserID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.UserID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.clients, client.UserID)
			}
		}
	}
	log.Printf("❌ Feed client disconnected: %s", client.UserID)
}

// PublishAlert mirrors one fired alert to the user's realtime feed.
// Delivery is best effort: a publish failure is logged, never surfaced.
func (h *Hub) PublishAlert(userID uuid.UUID, event model.AlertEvent) {
	targeted := &TargetedEvent{
		TargetUserID: userID,
		Event: model.WSEvent{
			Type:    model.WSEventAlert,
			Payload: event,
		},
	}

	if h.rdb == nil {
		h.sendToLocalUser(targeted.TargetUserID, &targeted.Event)
		return
	}

	data, err := json.Marshal(targeted)
	if err != nil {
		log.Printf("⚠️ Failed to marshal alert event: %v", err)
		return
	}
	if err := h.rdb.Publish(context.Background(), redisChannel, data).Err(); err != nil {
		log.Printf("⚠️ Failed to publish alert event: %v", err)
	}
}

// subscribeRedis delivers cross-instance events to local clients
func (h *Hub) subscribeRedis(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var targeted TargetedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &targeted); err != nil {
				log.Printf("⚠️ Failed to parse feed event: %v", err)
				continue
			}
			h.sendToLocalUser(targeted.TargetUserID, &targeted.Event)
		}
	}
}

// sendToLocalUser sends an event to a user's connections on this instance
func (h *Hub) sendToLocalUser(userID uuid.UUID, event *model.WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Failed to marshal feed event: %v", err)
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer: drop the event rather than block the hub
		}
	}
}
