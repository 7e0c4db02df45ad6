package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventID_Format(t *testing.T) {
	id := NewEventID()

	assert.True(t, strings.HasPrefix(id, "evt_"))
	assert.Len(t, strings.Split(id, "_"), 3)
}

func TestNewEventID_Uniqueness(t *testing.T) {
	const n = 10000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewEventID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate event ID after %d generations: %s", i, id)
		seen[id] = struct{}{}
	}
}

func TestNewEvent(t *testing.T) {
	payload := json.RawMessage(`{"productId":"p1"}`)

	evt := NewEvent(EventTypeProductDeleted, payload, "corr-1")

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, EventTypeProductDeleted, evt.EventType)
	assert.Equal(t, "corr-1", evt.CorrelationID)
	assert.Equal(t, payload, evt.Payload)
	assert.WithinDuration(t, time.Now(), evt.Timestamp, time.Second)
}

func TestEvent_Validate(t *testing.T) {
	valid := NewEvent(EventTypeProductCreated, json.RawMessage(`{}`), "")

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{
			name:    "valid event",
			mutate:  func(*Event) {},
			wantErr: false,
		},
		{
			name:    "missing event ID",
			mutate:  func(e *Event) { e.EventID = "" },
			wantErr: true,
		},
		{
			name:    "missing event type",
			mutate:  func(e *Event) { e.EventType = "" },
			wantErr: true,
		},
		{
			name:    "unknown event type",
			mutate:  func(e *Event) { e.EventType = "SOMETHING_ELSE" },
			wantErr: true,
		},
		{
			name:    "zero timestamp",
			mutate:  func(e *Event) { e.Timestamp = time.Time{} },
			wantErr: true,
		},
		{
			name:    "missing correlation ID is fine",
			mutate:  func(e *Event) { e.CorrelationID = "" },
			wantErr: false,
		},
		{
			name:    "reserved batch type is accepted",
			mutate:  func(e *Event) { e.EventType = EventTypeBatch },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := valid
			tt.mutate(&evt)

			err := evt.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	evt, err := NewProductCreated(ProductCreatedPayload{
		ProductID: "p1",
		Name:      "Headphones",
		Price:     199.99,
		Category:  "Electronics",
	}, "corr-42")
	require.NoError(t, err)

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, evt.EventID, decoded.EventID)
	assert.Equal(t, evt.EventType, decoded.EventType)
	assert.Equal(t, evt.CorrelationID, decoded.CorrelationID)
	assert.True(t, evt.Timestamp.Equal(decoded.Timestamp))

	var p ProductCreatedPayload
	require.NoError(t, decoded.DecodePayload(&p))
	assert.Equal(t, "p1", p.ProductID)
	assert.Equal(t, "Headphones", p.Name)
	assert.Equal(t, 199.99, p.Price)
	assert.Equal(t, "Electronics", p.Category)
}

func TestEvent_DecodePayload_ToleratesUnknownFields(t *testing.T) {
	// Additive wire format: newer producers may add fields.
	evt := NewEvent(EventTypeProductDeleted,
		json.RawMessage(`{"productId":"p9","tenantId":"t1","extra":{"a":1}}`), "")

	var p ProductDeletedPayload
	require.NoError(t, evt.DecodePayload(&p))
	assert.Equal(t, "p9", p.ProductID)
}

func TestEvent_DecodePayload_EmptyPayload(t *testing.T) {
	evt := NewEvent(EventTypeProductDeleted, nil, "")

	var p ProductDeletedPayload
	assert.Error(t, evt.DecodePayload(&p))
}
