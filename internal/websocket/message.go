package websocket

import "encoding/json"

// EventMessage is the name of the only event the channel relays.
const EventMessage = "message"

// Message defines the structure for websocket frames.
// Data is kept raw so it is relayed byte for byte.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
