package hub

import (
	"encoding/json"
	"sync"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single subscriber connection. It's essentially a
// channel that the SSE handler will listen to.
type Client chan []byte

// Hub manages live subscriptions keyed by topic (a notification feed, a
// conversation, ...). At most one client is active per (topic, consumer)
// pair: re-subscribing with the same consumer id replaces the old client,
// so a reconnecting view can never receive duplicate deliveries.
type Hub struct {
	topics    map[string]map[Client]bool
	consumers map[string]Client // topic + "|" + consumerID -> active client
	keys      map[Client]string // reverse index for cleanup
	mu        sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		topics:    make(map[string]map[Client]bool),
		consumers: make(map[string]Client),
		keys:      make(map[Client]string),
	}
}

// Subscribe registers a new client on a topic and returns it. Any previous
// client held by the same consumer on this topic is closed and dropped.
func (h *Hub) Subscribe(topic, consumerID string) Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := topic + "|" + consumerID
	if old, ok := h.consumers[key]; ok {
		h.removeLocked(topic, old)
	}

	client := make(Client, 16)
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[Client]bool)
	}
	h.topics[topic][client] = true
	h.consumers[key] = client
	h.keys[client] = key
	return client
}

// Unsubscribe removes a client from a topic and closes its channel. Calling
// it for an already removed client is a no-op.
func (h *Hub) Unsubscribe(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(topic, client)
}

func (h *Hub) removeLocked(topic string, client Client) {
	clients, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client) // Close the channel to signal the SSE handler to stop.
	if len(clients) == 0 {
		delete(h.topics, topic)
	}
	if key, ok := h.keys[client]; ok {
		delete(h.keys, client)
		if h.consumers[key] == client {
			delete(h.consumers, key)
		}
	}
}

// Broadcast sends an event to all clients subscribed to a topic.
func (h *Hub) Broadcast(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.topics[topic]
	if !ok {
		return
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return
	}

	for client := range clients {
		// Use a non-blocking send to prevent a slow client from blocking the hub.
		select {
		case client <- messageBytes:
		default:
			// Client channel is full, maybe they are disconnected or slow.
			// The unsubscribe logic will handle cleaning this up eventually.
		}
	}
}
