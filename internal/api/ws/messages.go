package ws

import (
	"github.com/GriffinCanCode/SketchBox/internal/sketch/binding"
)

// Client message types
const (
	MsgEvent  = "event"
	MsgResize = "resize"
	MsgPing   = "ping"
)

// Server-only message types; session events use their own type names
const (
	MsgHello = "hello"
	MsgPong  = "pong"
	MsgError = "error"
	MsgAck   = "ack"
)

// Inbound is a message sent by the client
type Inbound struct {
	Type   string         `json:"type"`
	Event  *binding.Event `json:"event,omitempty"`
	Width  int            `json:"width,omitempty"`
	Height int            `json:"height,omitempty"`
}

// Reply is a direct answer to one client message
type Reply struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	State   string `json:"state,omitempty"`
	Handled *bool  `json:"handled,omitempty"`
	Message string `json:"message,omitempty"`
}
