package event

import "encoding/json"

// WsEvent is the envelope for every message exchanged over a websocket
// connection. Payload stays raw until the handler for Event decodes it.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack is the acknowledgement sent back to the originating connection after
// each inbound event. A failed handler reports through Reason instead of
// tearing the connection down.
type Ack struct {
	Event   string      `json:"event"`
	Success bool        `json:"success"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
