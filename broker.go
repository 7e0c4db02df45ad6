package eventstream

import "context"

// Message is a raw payload received from or published to a broker channel.
type Message struct {
	Channel string
	Payload []byte
}

// Broker abstracts the message transport used by Publisher and Subscriber.
//
// Publishing goes through the shared client; subscriptions require a
// dedicated connection because a subscribing connection cannot issue
// ordinary commands (broker-client convention, e.g. Redis Pub/Sub).
//
// Implementations must be safe for concurrent use. See adapters/goredis for
// the Redis implementation and adapters/memory for the in-process one.
type Broker interface {
	// Publish submits a payload to the given channel. The call either
	// completes (broker accepted) or fails with the transport error.
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe opens a dedicated subscriber connection, optionally
	// pre-subscribed to the given channels.
	Subscribe(ctx context.Context, channels ...string) (SubscriberConn, error)
}

// SubscriberConn is a dedicated broker connection for channel subscriptions.
// It is owned exclusively by one Subscriber instance and is not safe for
// concurrent Receive calls.
type SubscriberConn interface {
	// Subscribe adds channels to the connection's subscription set.
	Subscribe(ctx context.Context, channels ...string) error

	// Unsubscribe removes channels from the connection's subscription set.
	Unsubscribe(ctx context.Context, channels ...string) error

	// Receive blocks until the next message arrives. It returns an error
	// when the connection is lost or closed; the caller decides whether to
	// reconnect.
	Receive(ctx context.Context) (Message, error)

	// Close releases the connection.
	Close() error
}
