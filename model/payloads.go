package model

import "encoding/json"

// ProductCreatedPayload carries the data of a PRODUCT_CREATED event.
type ProductCreatedPayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
}

// ProductUpdatedPayload carries the data of a PRODUCT_UPDATED event.
// Changes holds the modified fields keyed by field name.
type ProductUpdatedPayload struct {
	ProductID string                 `json:"productId"`
	Changes   map[string]interface{} `json:"changes"`
}

// ProductDeletedPayload carries the data of a PRODUCT_DELETED event.
type ProductDeletedPayload struct {
	ProductID string `json:"productId"`
}

// UserActivityPayload carries the data of a USER_ACTIVITY event.
type UserActivityPayload struct {
	UserID   string                 `json:"userId"`
	Action   string                 `json:"action"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewProductCreated builds a PRODUCT_CREATED envelope around the payload.
func NewProductCreated(p ProductCreatedPayload, correlationID string) (Event, error) {
	return newTypedEvent(EventTypeProductCreated, p, correlationID)
}

// NewProductUpdated builds a PRODUCT_UPDATED envelope around the payload.
func NewProductUpdated(p ProductUpdatedPayload, correlationID string) (Event, error) {
	return newTypedEvent(EventTypeProductUpdated, p, correlationID)
}

// NewProductDeleted builds a PRODUCT_DELETED envelope around the payload.
func NewProductDeleted(p ProductDeletedPayload, correlationID string) (Event, error) {
	return newTypedEvent(EventTypeProductDeleted, p, correlationID)
}

// NewUserActivity builds a USER_ACTIVITY envelope around the payload.
func NewUserActivity(p UserActivityPayload, correlationID string) (Event, error) {
	return newTypedEvent(EventTypeUserActivity, p, correlationID)
}

func newTypedEvent(eventType EventType, payload interface{}, correlationID string) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return NewEvent(eventType, raw, correlationID), nil
}
