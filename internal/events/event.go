package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names an event kind.
type Type string

const (
	ScoreUpdated      Type = "score.updated"
	FeedbackShown     Type = "feedback.shown"
	FeedbackDismissed Type = "feedback.dismissed"
	SoundPlay         Type = "sound.play"
	PickerStarted     Type = "picker.started"
	PickerTick        Type = "picker.tick"
	PickerRevealing   Type = "picker.revealing"
	PickerRevealed    Type = "picker.revealed"
	RosterReplaced    Type = "roster.replaced"
	ClassCreated      Type = "class.created"
	ClassDeleted      Type = "class.deleted"
	AvatarChanged     Type = "avatar.changed"
	SessionChanged    Type = "session.changed"
)

// Event is one message on the bus. Payload is JSON so the same value can
// cross a NATS connection unchanged.
type Event struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New builds an event with payload v encoded as JSON. A payload that cannot
// be encoded is dropped; every payload in this repo is a plain struct.
func New(t Type, at time.Time, v interface{}) Event {
	e := Event{ID: uuid.NewString(), Type: t, At: at}
	if v != nil {
		if raw, err := json.Marshal(v); err == nil {
			e.Payload = raw
		}
	}
	return e
}

// Decode unmarshals the event payload into dst.
func (e Event) Decode(dst interface{}) error {
	return json.Unmarshal(e.Payload, dst)
}
