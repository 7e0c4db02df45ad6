// Package goredis provides the Redis Pub/Sub implementation of the
// eventstream Broker using github.com/redis/go-redis/v9.
//
// Publishing uses the shared client; each Subscribe call opens a dedicated
// Pub/Sub connection, since a subscribing Redis connection cannot issue
// ordinary commands.
package goredis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/coregx/eventstream"
)

// Options configures the Redis broker connection.
type Options struct {
	Addr     string // host:port (default "localhost:6379")
	Password string // empty = no auth
	DB       int    // Redis logical database
}

// Broker implements eventstream.Broker on Redis Pub/Sub.
// Safe for concurrent use.
type Broker struct {
	client *redis.Client
}

// NewBroker creates a Redis broker. The connection is established lazily;
// use Ping to verify reachability at startup.
func NewBroker(opts Options) *Broker {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	return &Broker{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// NewBrokerFromClient wraps an existing Redis client.
func NewBrokerFromClient(client *redis.Client) *Broker {
	return &Broker{client: client}
}

// Ping verifies the Redis connection.
func (b *Broker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Publish implements eventstream.Broker.
func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	if channel == "" {
		return fmt.Errorf("channel is required")
	}
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe implements eventstream.Broker. It opens a dedicated Pub/Sub
// connection, optionally pre-subscribed to the given channels.
func (b *Broker) Subscribe(ctx context.Context, channels ...string) (eventstream.SubscriberConn, error) {
	ps := b.client.Subscribe(ctx, channels...)

	// Force the connection open so an unreachable broker fails here, not on
	// the first Receive.
	if len(channels) > 0 {
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return nil, err
		}
	} else if err := b.client.Ping(ctx).Err(); err != nil {
		_ = ps.Close()
		return nil, err
	}

	return &Conn{pubsub: ps}, nil
}

// Close releases the underlying Redis client.
func (b *Broker) Close() error {
	return b.client.Close()
}

// Conn wraps a dedicated Redis Pub/Sub connection.
type Conn struct {
	pubsub *redis.PubSub
}

// Subscribe implements eventstream.SubscriberConn.
func (c *Conn) Subscribe(ctx context.Context, channels ...string) error {
	return c.pubsub.Subscribe(ctx, channels...)
}

// Unsubscribe implements eventstream.SubscriberConn.
func (c *Conn) Unsubscribe(ctx context.Context, channels ...string) error {
	return c.pubsub.Unsubscribe(ctx, channels...)
}

// Receive implements eventstream.SubscriberConn. Subscription confirmations
// are consumed internally; only payload messages are returned.
func (c *Conn) Receive(ctx context.Context) (eventstream.Message, error) {
	msg, err := c.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return eventstream.Message{}, err
	}
	return eventstream.Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}, nil
}

// Close implements eventstream.SubscriberConn.
func (c *Conn) Close() error {
	return c.pubsub.Close()
}
