package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message),
	}
}

func (h *Hub) Start() {
	slog.Info("Starting WebSocket hub...")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

			slog.Info(fmt.Sprintf("Client connected. Size of hub: %d", len(h.clients)))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				slog.Info(fmt.Sprintf("Client disconnected. Size of hub: %d", len(h.clients)))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer; drop the event rather than block
					// the hub loop.
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Broadcast(msg Message) {
	h.broadcast <- msg
}

// Relay forwards everything published on a Redis channel to every
// connected client, tagging it with the channel name as the event.
func (h *Hub) Relay(ctx context.Context, redisClient *redis.Client, channel string) {
	sub := redisClient.Subscribe(ctx, channel)
	defer sub.Close()

	slog.Info(fmt.Sprintf("Relaying Redis channel %s to WebSocket clients...", channel))

	for msg := range sub.Channel() {
		h.Broadcast(Message{
			Event: msg.Channel,
			Data:  json.RawMessage(msg.Payload),
		})
	}
}
