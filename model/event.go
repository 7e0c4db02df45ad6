// Package model contains the event envelope, typed payloads and dead-letter
// models for the eventstream delivery core.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// EventType is the discriminant tag of an event envelope. The payload shape
// is fully determined by the event type; consumers must check the
// discriminant before inspecting payload fields.
type EventType string

// Event type discriminants. Stable wire contract with producers/consumers.
const (
	EventTypeProductCreated EventType = "PRODUCT_CREATED"
	EventTypeProductUpdated EventType = "PRODUCT_UPDATED"
	EventTypeProductDeleted EventType = "PRODUCT_DELETED"
	EventTypeUserActivity   EventType = "USER_ACTIVITY"

	// EventTypeBatch is reserved for future grouped delivery.
	EventTypeBatch EventType = "BATCH"
)

// Channel names. Channels are routing keys known at compile time by both
// publishers and the router; they are not modeled as objects.
const (
	ChannelProduct    = "events:product"
	ChannelAudit      = "events:audit"
	ChannelDeadLetter = "events:dlq"
)

// KnownEventTypes lists every event type the current router understands.
var KnownEventTypes = []interface{}{
	EventTypeProductCreated,
	EventTypeProductUpdated,
	EventTypeProductDeleted,
	EventTypeUserActivity,
	EventTypeBatch,
}

// Event is the immutable envelope surrounding every published payload.
//
// EventID is generated once at creation and never reused or mutated.
// CorrelationID is caller-supplied and passed through unchanged end to end
// for cross-service tracing. Payload is kept raw so that unknown fields from
// newer producers survive the round trip (the wire format is additive).
type Event struct {
	EventID       string          `json:"eventId"`
	EventType     EventType       `json:"eventType"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewEvent creates an envelope of the given type around an already-encoded
// payload. EventID and Timestamp are populated at creation.
func NewEvent(eventType EventType, payload json.RawMessage, correlationID string) Event {
	return Event{
		EventID:       NewEventID(),
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// NewEventID generates a globally unique event identifier composed of a
// millisecond timestamp and a random component. Uniqueness holds with
// overwhelming probability; monotonic ordering is not guaranteed.
func NewEventID() string {
	return fmt.Sprintf("evt_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Validate is the structural guard applied to untyped input at the boundary.
// It rejects envelopes with a missing eventId, an unknown eventType, or a
// zero timestamp.
func (e Event) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.EventID, validation.Required),
		validation.Field(&e.EventType, validation.Required, validation.In(KnownEventTypes...)),
		validation.Field(&e.Timestamp, validation.Required, validation.By(func(interface{}) error {
			if e.Timestamp.IsZero() {
				return fmt.Errorf("must be a valid instant")
			}
			return nil
		})),
	)
}

// DecodePayload unmarshals the raw payload into the typed payload struct
// matching the envelope's event type.
func (e Event) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has no payload", e.EventID)
	}
	return json.Unmarshal(e.Payload, v)
}
