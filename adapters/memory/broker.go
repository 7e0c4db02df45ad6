// Package memory provides an in-process Broker implementation for tests and
// examples. It fans published payloads out to every subscribed connection and
// can simulate broker failures: dropped connections and failing reconnects.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/coregx/eventstream"
)

// Broker is an in-process implementation of eventstream.Broker.
// Safe for concurrent use.
type Broker struct {
	mu           sync.Mutex
	conns        map[*Conn]struct{}
	failConnects int
	closed       bool
	queueSize    int
}

// NewBroker creates an in-process broker.
func NewBroker() *Broker {
	return &Broker{
		conns:     make(map[*Conn]struct{}),
		queueSize: 256,
	}
}

// Publish delivers the payload to every connection subscribed to the channel.
// A connection with a full inbox drops the message; the in-process broker
// mirrors fan-out semantics, not queue semantics.
func (b *Broker) Publish(_ context.Context, channel string, payload []byte) error {
	if channel == "" {
		return fmt.Errorf("channel is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	for conn := range b.conns {
		conn.deliver(eventstream.Message{Channel: channel, Payload: payload})
	}
	return nil
}

// Subscribe opens a dedicated subscriber connection.
func (b *Broker) Subscribe(_ context.Context, channels ...string) (eventstream.SubscriberConn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("broker is closed")
	}
	if b.failConnects > 0 {
		b.failConnects--
		return nil, fmt.Errorf("simulated connect failure")
	}

	conn := &Conn{
		broker:   b,
		inbox:    make(chan eventstream.Message, b.queueSize),
		done:     make(chan struct{}),
		channels: make(map[string]struct{}),
	}
	for _, ch := range channels {
		conn.channels[ch] = struct{}{}
	}
	b.conns[conn] = struct{}{}
	return conn, nil
}

// DropConnections severs every subscriber connection, simulating a broker
// outage. Subsequent Receive calls on dropped connections fail.
func (b *Broker) DropConnections() {
	b.mu.Lock()
	conns := make([]*Conn, 0, len(b.conns))
	for conn := range b.conns {
		conns = append(conns, conn)
	}
	b.conns = make(map[*Conn]struct{})
	b.mu.Unlock()

	for _, conn := range conns {
		conn.drop()
	}
}

// FailConnects makes the next n Subscribe calls fail, simulating an
// unreachable broker during reconnection.
func (b *Broker) FailConnects(n int) {
	b.mu.Lock()
	b.failConnects = n
	b.mu.Unlock()
}

// Close shuts the broker down and severs all connections.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.DropConnections()
}

func (b *Broker) remove(conn *Conn) {
	b.mu.Lock()
	delete(b.conns, conn)
	b.mu.Unlock()
}

// Conn is an in-process subscriber connection.
type Conn struct {
	broker *Broker
	inbox  chan eventstream.Message

	mu       sync.Mutex
	channels map[string]struct{}
	dropped  bool

	done     chan struct{}
	doneOnce sync.Once
}

// Subscribe implements eventstream.SubscriberConn.
func (c *Conn) Subscribe(_ context.Context, channels ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dropped {
		return fmt.Errorf("connection lost")
	}
	for _, ch := range channels {
		c.channels[ch] = struct{}{}
	}
	return nil
}

// Unsubscribe implements eventstream.SubscriberConn.
func (c *Conn) Unsubscribe(_ context.Context, channels ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dropped {
		return fmt.Errorf("connection lost")
	}
	for _, ch := range channels {
		delete(c.channels, ch)
	}
	return nil
}

// Receive implements eventstream.SubscriberConn.
func (c *Conn) Receive(ctx context.Context) (eventstream.Message, error) {
	select {
	case msg := <-c.inbox:
		return msg, nil
	case <-c.done:
		return eventstream.Message{}, fmt.Errorf("connection lost")
	case <-ctx.Done():
		return eventstream.Message{}, ctx.Err()
	}
}

// Close implements eventstream.SubscriberConn.
func (c *Conn) Close() error {
	c.broker.remove(c)
	c.drop()
	return nil
}

func (c *Conn) deliver(msg eventstream.Message) {
	c.mu.Lock()
	_, subscribed := c.channels[msg.Channel]
	dropped := c.dropped
	c.mu.Unlock()
	if !subscribed || dropped {
		return
	}

	select {
	case c.inbox <- msg:
	default:
		// Inbox full: fan-out semantics, the message is lost for this conn.
	}
}

func (c *Conn) drop() {
	c.mu.Lock()
	c.dropped = true
	c.mu.Unlock()
	c.doneOnce.Do(func() {
		close(c.done)
	})
}
