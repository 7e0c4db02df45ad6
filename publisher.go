package eventstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coregx/eventstream/model"
)

// Publisher serializes events and hands them to the broker's channel-publish
// primitive. It performs no retry: event publication is a best-effort side
// effect of a primary operation that has already committed, so callers treat
// publish failure as fire-and-forget-with-logging (dead-lettering is the one
// caller that layers its own handling on top).
type Publisher struct {
	broker Broker
	logger Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher) error

// NewPublisher creates a new Publisher with the provided options.
//
// Required options:
//   - WithPublisherBroker: broker transport
//   - WithPublisherLogger: logger instance
//
// Example:
//
//	publisher, err := eventstream.NewPublisher(
//	    eventstream.WithPublisherBroker(broker),
//	    eventstream.WithPublisherLogger(logger),
//	)
func NewPublisher(opts ...PublisherOption) (*Publisher, error) {
	p := &Publisher{}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply publisher option", err)
		}
	}

	// Validate required dependencies
	if p.broker == nil {
		return nil, NewError(ErrCodeConfiguration, "Broker is required (use WithPublisherBroker)")
	}
	if p.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithPublisherLogger)")
	}

	return p, nil
}

// WithPublisherBroker sets the broker transport.
func WithPublisherBroker(broker Broker) PublisherOption {
	return func(p *Publisher) error {
		if broker == nil {
			return fmt.Errorf("broker cannot be nil")
		}
		p.broker = broker
		return nil
	}
}

// WithPublisherLogger sets the logger instance.
func WithPublisherLogger(logger Logger) PublisherOption {
	return func(p *Publisher) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// Publish serializes the event envelope to JSON and submits it to the broker
// for the given channel. The channel must be non-empty; channel existence is
// not validated here, the broker is authoritative.
//
// The call either completes or fails with the underlying transport error
// surfaced unchanged inside a TRANSPORT_ERROR wrapper.
func (p *Publisher) Publish(ctx context.Context, channel string, evt model.Event) error {
	if channel == "" {
		return NewError(ErrCodeValidation, "channel is required")
	}
	if err := evt.Validate(); err != nil {
		return NewErrorWithCause(ErrCodeValidation, fmt.Sprintf("invalid event for channel %s", channel), err)
	}

	return p.publishPayload(ctx, channel, evt, string(evt.EventType), evt.EventID)
}

// PublishJSON serializes an arbitrary envelope (e.g. a dead-letter wrapper)
// to the given channel. Values that cannot be marshaled fail fast with a
// SERIALIZATION_ERROR instead of reaching the broker.
func (p *Publisher) PublishJSON(ctx context.Context, channel string, v interface{}) error {
	if channel == "" {
		return NewError(ErrCodeValidation, "channel is required")
	}

	return p.publishPayload(ctx, channel, v, fmt.Sprintf("%T", v), "")
}

func (p *Publisher) publishPayload(ctx context.Context, channel string, v interface{}, kind, eventID string) error {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Errorf("Failed to serialize %s for channel %s: %v", kind, channel, err)
		return NewErrorWithCause(ErrCodeSerialization, fmt.Sprintf("failed to serialize payload for channel %s", channel), err)
	}

	if err := p.broker.Publish(ctx, channel, payload); err != nil {
		p.logger.Errorf("Failed to publish to channel %s: %v", channel, err)
		return NewErrorWithCause(ErrCodeTransport, fmt.Sprintf("failed to publish to channel %s", channel), err)
	}

	if eventID != "" {
		p.logger.Infof("Published event %s to channel %s (%d bytes)", eventID, channel, len(payload))
	} else {
		p.logger.Infof("Published %s to channel %s (%d bytes)", kind, channel, len(payload))
	}
	return nil
}
