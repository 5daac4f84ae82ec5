package model

import (
	"encoding/json"
)

// EventType names a server to client realtime event.
type EventType string

const (
	EventInit                 EventType = "init"
	EventMessage              EventType = "message"
	EventLeadCreated          EventType = "lead-created"
	EventLeadUpdated          EventType = "lead-updated"
	EventLeadDeleted          EventType = "lead-deleted"
	EventTravaUpdated         EventType = "trava-updated"
	EventQuickMessagesUpdated EventType = "quick-messages-updated"
)

// Event is the envelope pushed to dashboard sessions.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent encodes payload into an event envelope.
func NewEvent(t EventType, payload any) (Event, error) {
	if payload == nil {
		return Event{Type: t}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Data: data}, nil
}

// MessageEvent is the payload of EventMessage.
type MessageEvent struct {
	UserID       string        `json:"userId"`
	Conversation *Conversation `json:"conversation"`
}

// LeadDeletedEvent is the payload of EventLeadDeleted.
type LeadDeletedEvent struct {
	Identifier string `json:"identifier"`
	UUID       string `json:"uuid,omitempty"`
}
