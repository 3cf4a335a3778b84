package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMemberSignedUp EventType = "member_signed_up"
	EventMemberDeleted  EventType = "member_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	MemberID  string      `json:"member_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current UTC time.
func NewEvent(eventType EventType, memberID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		MemberID:  memberID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// MemberSignedUpPayload payload.
type MemberSignedUpPayload struct {
	Email    string   `json:"email"`
	Nickname string   `json:"nickname"`
	Roles    []string `json:"roles"`
}

// MemberDeletedPayload payload.
type MemberDeletedPayload struct {
	DeletedBySelf bool `json:"deleted_by_self"`
}
