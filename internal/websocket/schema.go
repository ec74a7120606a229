package websocket

import (
	"github.com/stemsi/classpoints-backend/internal/events"
	"github.com/stemsi/classpoints-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing            Action = "ping"
	ActionDismissFeedback Action = "dismiss_feedback"
	ActionCloseStudent    Action = "close_student"
)

// RequestEnvelope is every client message; actions carry no payload.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventHello  Event = "hello"
	EventStream Event = "event"
	EventAck    Event = "ack"
	EventPong   Event = "pong"
	EventError  Event = "error"
)

// HelloMessage is sent once after the upgrade with the current view.
type HelloMessage struct {
	Event   Event             `json:"event"`
	Session model.SessionView `json:"session"`
}

// StreamMessage forwards one bus event.
type StreamMessage struct {
	Event Event        `json:"event"`
	Data  events.Event `json:"data"`
}

// AckMessage confirms an action.
type AckMessage struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
	OK     bool   `json:"ok"`
}

type PongMessage struct {
	Event Event `json:"event"`
}

type ErrorMessage struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
