package goredis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBroker connects to a local Redis instance. Tests are skipped when no
// instance is reachable (set REDIS_TEST_ADDR to override the default).
func testBroker(t *testing.T) *Broker {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	broker := NewBroker(Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := broker.Ping(ctx); err != nil {
		_ = broker.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	t.Cleanup(func() { _ = broker.Close() })
	return broker
}

func TestBroker_PublishSubscribe(t *testing.T) {
	broker := testBroker(t)
	ctx := context.Background()

	conn, err := broker.Subscribe(ctx, "eventstream:test:roundtrip")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, broker.Publish(ctx, "eventstream:test:roundtrip", []byte("hello")))

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := conn.Receive(rctx)
	require.NoError(t, err)
	assert.Equal(t, "eventstream:test:roundtrip", msg.Channel)
	assert.Equal(t, []byte("hello"), msg.Payload)
}

func TestBroker_SubscribeLater(t *testing.T) {
	broker := testBroker(t)
	ctx := context.Background()

	conn, err := broker.Subscribe(ctx)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Subscribe(ctx, "eventstream:test:late"))
	// Redis subscription confirmations are asynchronous.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, broker.Publish(ctx, "eventstream:test:late", []byte("payload")))

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := conn.Receive(rctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), msg.Payload)
}

func TestBroker_Unsubscribe(t *testing.T) {
	broker := testBroker(t)
	ctx := context.Background()

	conn, err := broker.Subscribe(ctx, "eventstream:test:unsub")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Unsubscribe(ctx, "eventstream:test:unsub"))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, broker.Publish(ctx, "eventstream:test:unsub", []byte("ignored")))

	rctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = conn.Receive(rctx)
	assert.Error(t, err)
}

func TestBroker_PublishRequiresChannel(t *testing.T) {
	broker := NewBroker(Options{})
	defer broker.Close()

	assert.Error(t, broker.Publish(context.Background(), "", []byte("x")))
}

func TestNewBroker_DefaultAddr(t *testing.T) {
	broker := NewBroker(Options{})
	defer broker.Close()

	assert.Equal(t, "localhost:6379", broker.client.Options().Addr)
}
