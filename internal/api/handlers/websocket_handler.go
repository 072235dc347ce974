package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	ws "github.com/isdelr/userchat-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades connections and relays chat messages through the hub.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The chat channel accepts any origin.
		return true
	},
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		// Closes the send channel, which ends WritePump and the connection.
		h.hub.Unregister(client)
		conn.Close()
	}()
}

// handleIncomingWSMessage relays "message" events verbatim to every client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		return
	}

	if msg.Event != ws.EventMessage {
		log.Debug().Str("event", msg.Event).Msg("Ignoring websocket event")
		return
	}
	h.hub.Broadcast(message)
}
