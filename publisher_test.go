package eventstream_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/eventstream"
	"github.com/coregx/eventstream/adapters/memory"
	"github.com/coregx/eventstream/model"
)

func TestNewPublisher_RequiresBroker(t *testing.T) {
	_, err := eventstream.NewPublisher(
		eventstream.WithPublisherLogger(&eventstream.NoopLogger{}),
	)

	require.Error(t, err)
	assert.True(t, eventstream.IsCode(err, eventstream.ErrCodeConfiguration))
	assert.Contains(t, err.Error(), "WithPublisherBroker")
}

func TestNewPublisher_RequiresLogger(t *testing.T) {
	_, err := eventstream.NewPublisher(
		eventstream.WithPublisherBroker(memory.NewBroker()),
	)

	require.Error(t, err)
	assert.True(t, eventstream.IsCode(err, eventstream.ErrCodeConfiguration))
	assert.Contains(t, err.Error(), "WithPublisherLogger")
}

func TestNewPublisher_NilOptionValues(t *testing.T) {
	_, err := eventstream.NewPublisher(
		eventstream.WithPublisherBroker(nil),
	)
	require.Error(t, err)
	assert.True(t, eventstream.IsCode(err, eventstream.ErrCodeConfiguration))

	_, err = eventstream.NewPublisher(
		eventstream.WithPublisherLogger(nil),
	)
	require.Error(t, err)
	assert.True(t, eventstream.IsCode(err, eventstream.ErrCodeConfiguration))
}

func TestPublisher_Publish_RoundTrip(t *testing.T) {
	broker := memory.NewBroker()
	defer broker.Close()

	publisher, err := eventstream.NewPublisher(
		eventstream.WithPublisherBroker(broker),
		eventstream.WithPublisherLogger(&eventstream.NoopLogger{}),
	)
	require.NoError(t, err)

	conn, err := broker.Subscribe(context.Background(), model.ChannelProduct)
	require.NoError(t, err)
	defer conn.Close()

	evt, err := model.NewProductCreated(model.ProductCreatedPayload{
		ProductID: "p1",
		Name:      "Headphones",
		Price:     199.99,
		Category:  "Electronics",
	}, "corr-1")
	require.NoError(t, err)

	require.NoError(t, publisher.Publish(context.Background(), model.ChannelProduct, evt))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelProduct, msg.Channel)

	var received model.Event
	require.NoError(t, json.Unmarshal(msg.Payload, &received))
	assert.Equal(t, evt.EventID, received.EventID)
	assert.Equal(t, model.EventTypeProductCreated, received.EventType)
	assert.Equal(t, "corr-1", received.CorrelationID)

	var p model.ProductCreatedPayload
	require.NoError(t, received.DecodePayload(&p))
	assert.Equal(t, "Headphones", p.Name)
	assert.Equal(t, 199.99, p.Price)
}

func TestPublisher_Publish_EmptyChannel(t *testing.T) {
	publisher, err := eventstream.NewPublisher(
		eventstream.WithPublisherBroker(memory.NewBroker()),
		eventstream.WithPublisherLogger(&eventstream.NoopLogger{}),
	)
	require.NoError(t, err)

	evt, err := model.NewProductDeleted(model.ProductDeletedPayload{ProductID: "p1"}, "")
	require.NoError(t, err)

	err = publisher.Publish(context.Background(), "", evt)
	require.Error(t, err)
	assert.True(t, eventstream.IsCode(err, eventstream.ErrCodeValidation))
}

func TestPublisher_Publish_InvalidEvent(t *testing.T) {
	publisher, err := eventstream.NewPublisher(
		eventstream.WithPublisherBroker(memory.NewBroker()),
		eventstream.WithPublisherLogger(&eventstream.NoopLogger{}),
	)
	require.NoError(t, err)

	err = publisher.Publish(context.Background(), model.ChannelProduct, model.Event{
		EventType: "NOT_A_KNOWN_TYPE",
	})
	require.Error(t, err)
	assert.True(t, eventstream.IsCode(err, eventstream.ErrCodeValidation))
}

func TestPublisher_PublishJSON_SerializationFailure(t *testing.T) {
	logger := newRecordingLogger()
	publisher, err := eventstream.NewPublisher(
		eventstream.WithPublisherBroker(memory.NewBroker()),
		eventstream.WithPublisherLogger(logger),
	)
	require.NoError(t, err)

	// Channels are not JSON-serializable.
	err = publisher.PublishJSON(context.Background(), model.ChannelDeadLetter, map[string]interface{}{
		"bad": make(chan int),
	})
	require.Error(t, err)
	assert.True(t, eventstream.IsCode(err, eventstream.ErrCodeSerialization))
	assert.True(t, logger.contains("error", "Failed to serialize"))
}

func TestPublisher_Publish_TransportError(t *testing.T) {
	broker := memory.NewBroker()
	publisher, err := eventstream.NewPublisher(
		eventstream.WithPublisherBroker(broker),
		eventstream.WithPublisherLogger(&eventstream.NoopLogger{}),
	)
	require.NoError(t, err)

	broker.Close()

	evt, err := model.NewProductDeleted(model.ProductDeletedPayload{ProductID: "p1"}, "")
	require.NoError(t, err)

	err = publisher.Publish(context.Background(), model.ChannelProduct, evt)
	require.Error(t, err)
	assert.True(t, eventstream.IsCode(err, eventstream.ErrCodeTransport))
}
