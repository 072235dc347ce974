package websocket

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// Only Run touches the registry, so no locking is needed.
type Hub struct {
	// Registered clients.
	clients map[*Client]struct{}

	// Inbound messages from the clients for global broadcast.
	broadcast chan []byte

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns so late callers do not block.
	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
	}
}

// Register adds c to the registry.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes c from the registry and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues message for delivery to every registered client,
// the sender included.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Run starts the Hub's message processing loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; the broadcaster never waits.
					h.drop(client)
					log.Warn().Int("total_clients", len(h.clients)).Msg("Dropped client with full send buffer")
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}
