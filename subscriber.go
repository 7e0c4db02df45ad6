package eventstream

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coregx/eventstream/model"
	"github.com/coregx/eventstream/retry"
)

// ConnectionStatus describes the subscriber connection state machine.
type ConnectionStatus string

const (
	// StatusUninitialized is the state before Initialize is called.
	StatusUninitialized ConnectionStatus = "uninitialized"

	// StatusConnecting indicates a connection or reconnection attempt is in
	// progress.
	StatusConnecting ConnectionStatus = "connecting"

	// StatusConnected indicates the broker connection is live.
	StatusConnected ConnectionStatus = "connected"

	// StatusDisconnected indicates the broker connection dropped and a
	// reconnect is pending.
	StatusDisconnected ConnectionStatus = "disconnected"

	// StatusExhausted is terminal: reconnection attempts are used up and no
	// further automatic retry happens.
	StatusExhausted ConnectionStatus = "exhausted"

	// StatusClosed is terminal and intentional, entered via Close.
	StatusClosed ConnectionStatus = "closed"
)

// EventFunc is the callback invoked for every parsed event on a channel.
// Callbacks may overlap across channels but run in order within one channel;
// they must not share mutable state across invocations beyond the logger.
type EventFunc func(ctx context.Context, evt model.Event)

// MessageFunc is the raw-payload callback used by consumers of non-envelope
// channels (e.g. the dead-letter archiver).
type MessageFunc func(ctx context.Context, msg Message)

// Subscriber owns the broker subscriber connection, channel subscriptions,
// message deserialization and reconnection with bounded exponential backoff.
//
// Exactly one callback is retained per channel: re-subscribing a channel
// replaces the previous callback (last-write-wins). Each channel gets its own
// worker goroutine and queue, so a slow handler delays only the messages
// behind it on the same channel, never the receive loop or other channels.
type Subscriber struct {
	broker        Broker
	logger        Logger
	reconnect     retry.Policy
	notifications NotificationService
	queueSize     int

	mu      sync.Mutex
	status  ConnectionStatus
	conn    SubscriberConn
	workers map[string]*channelWorker
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber) error

// NewSubscriber creates a new Subscriber with the provided options.
//
// Required options:
//   - WithSubscriberBroker: broker transport
//   - WithSubscriberLogger: logger instance
//
// Optional options:
//   - WithSubscriberReconnectPolicy: reconnect backoff (default: retry.ReconnectPolicy())
//   - WithSubscriberNotifications: notification service (default: none)
//   - WithSubscriberQueueSize: per-channel queue size (default: 256)
func NewSubscriber(opts ...SubscriberOption) (*Subscriber, error) {
	s := &Subscriber{
		status:        StatusUninitialized,
		reconnect:     retry.ReconnectPolicy(),
		notifications: &NoOpNotificationService{},
		queueSize:     256,
		workers:       make(map[string]*channelWorker),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply subscriber option", err)
		}
	}

	// Validate required dependencies
	if s.broker == nil {
		return nil, NewError(ErrCodeConfiguration, "Broker is required (use WithSubscriberBroker)")
	}
	if s.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithSubscriberLogger)")
	}

	return s, nil
}

// WithSubscriberBroker sets the broker transport.
func WithSubscriberBroker(broker Broker) SubscriberOption {
	return func(s *Subscriber) error {
		if broker == nil {
			return fmt.Errorf("broker cannot be nil")
		}
		s.broker = broker
		return nil
	}
}

// WithSubscriberLogger sets the logger instance.
func WithSubscriberLogger(logger Logger) SubscriberOption {
	return func(s *Subscriber) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithSubscriberReconnectPolicy sets the reconnect backoff policy.
// The default is retry.ReconnectPolicy(): 5 attempts, 500ms exponential base.
func WithSubscriberReconnectPolicy(p retry.Policy) SubscriberOption {
	return func(s *Subscriber) error {
		if p.MaxAttempts < 1 {
			return fmt.Errorf("reconnect policy needs at least one attempt")
		}
		s.reconnect = p
		return nil
	}
}

// WithSubscriberNotifications sets an optional notification service invoked
// on reconnect exhaustion.
func WithSubscriberNotifications(service NotificationService) SubscriberOption {
	return func(s *Subscriber) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		s.notifications = service
		return nil
	}
}

// WithSubscriberQueueSize sets the per-channel message queue size.
func WithSubscriberQueueSize(size int) SubscriberOption {
	return func(s *Subscriber) error {
		if size <= 0 {
			return fmt.Errorf("queue size must be > 0, got %d", size)
		}
		s.queueSize = size
		return nil
	}
}

// Initialize opens the broker subscriber connection and starts the receive
// loop. Calling it again while already initialized is a no-op with a warning.
func (s *Subscriber) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusUninitialized && s.status != StatusClosed {
		s.mu.Unlock()
		s.logger.Warnf("Subscriber already initialized (status=%s), ignoring", s.status)
		return nil
	}
	s.status = StatusConnecting
	s.mu.Unlock()

	conn, err := s.broker.Subscribe(ctx)
	if err != nil {
		s.mu.Lock()
		s.status = StatusUninitialized
		s.mu.Unlock()
		return NewErrorWithCause(ErrCodeTransport, "failed to connect subscriber", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.conn = conn
	s.cancel = cancel
	s.status = StatusConnected
	s.mu.Unlock()

	s.wg.Add(1)
	go s.receiveLoop(loopCtx)

	s.logger.Infof("Subscriber connected")
	return nil
}

// Subscribe registers the event callback for a channel. The payload of every
// message on the channel is parsed into an event envelope and validated
// before the callback runs; malformed messages are logged and dropped without
// affecting the subscription.
//
// Subscribing before Initialize fails with NOT_INITIALIZED; it never silently
// queues. Re-subscribing an already registered channel replaces the callback.
func (s *Subscriber) Subscribe(ctx context.Context, channel string, fn EventFunc) error {
	if fn == nil {
		return NewError(ErrCodeValidation, "callback is required")
	}
	return s.register(ctx, channel, func(ctx context.Context, msg Message) {
		var evt model.Event
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			s.logger.Errorf("Failed to parse message on channel %s (%d bytes): %v",
				msg.Channel, len(msg.Payload), err)
			return
		}
		if err := evt.Validate(); err != nil {
			s.logger.Warnf("Dropping invalid event on channel %s: %v", msg.Channel, err)
			return
		}
		fn(ctx, evt)
	})
}

// SubscribeRaw registers a raw-payload callback for a channel, bypassing the
// event envelope parse. Used for channels carrying non-envelope payloads such
// as dead-letter wrappers.
func (s *Subscriber) SubscribeRaw(ctx context.Context, channel string, fn MessageFunc) error {
	if fn == nil {
		return NewError(ErrCodeValidation, "callback is required")
	}
	return s.register(ctx, channel, fn)
}

func (s *Subscriber) register(ctx context.Context, channel string, fn MessageFunc) error {
	if channel == "" {
		return NewError(ErrCodeValidation, "channel is required")
	}

	s.mu.Lock()
	if s.status == StatusUninitialized || s.status == StatusClosed {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	if w, ok := s.workers[channel]; ok {
		// Last write wins: swap the callback, keep the worker and the
		// broker subscription.
		w.setCallback(fn)
		s.mu.Unlock()
		s.logger.Warnf("Replacing existing callback for channel %s", channel)
		return nil
	}

	w := newChannelWorker(channel, s.queueSize, fn)
	s.workers[channel] = w
	conn := s.conn
	// Add must happen under the lock: Close holds it to flip the status,
	// so it cannot start waiting before the worker is counted.
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		w.run(s.logger)
	}()

	if err := conn.Subscribe(ctx, channel); err != nil {
		s.mu.Lock()
		delete(s.workers, channel)
		s.mu.Unlock()
		w.close()
		return NewErrorWithCause(ErrCodeTransport, fmt.Sprintf("failed to subscribe channel %s", channel), err)
	}

	s.logger.Infof("Subscribed to channel %s", channel)
	return nil
}

// Unsubscribe removes the channel registration and its broker subscription.
// On a never-initialized subscriber it logs a warning and returns nil.
func (s *Subscriber) Unsubscribe(ctx context.Context, channel string) error {
	s.mu.Lock()
	if s.status == StatusUninitialized || s.status == StatusClosed {
		s.mu.Unlock()
		s.logger.Warnf("Unsubscribe %s ignored: subscriber not initialized", channel)
		return nil
	}

	w, ok := s.workers[channel]
	if !ok {
		s.mu.Unlock()
		s.logger.Warnf("Unsubscribe %s ignored: channel not registered", channel)
		return nil
	}
	delete(s.workers, channel)
	conn := s.conn
	s.mu.Unlock()

	w.close()

	if err := conn.Unsubscribe(ctx, channel); err != nil {
		return NewErrorWithCause(ErrCodeTransport, fmt.Sprintf("failed to unsubscribe channel %s", channel), err)
	}

	s.logger.Infof("Unsubscribed from channel %s", channel)
	return nil
}

// Close clears all registered channels and callbacks and releases the broker
// connection. It waits for the message each worker is currently handling, so
// it can block for that handler's remaining retry backoff. It is safe to call
// on a never-initialized subscriber.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.status == StatusUninitialized || s.status == StatusClosed {
		s.status = StatusClosed
		s.mu.Unlock()
		return nil
	}

	s.status = StatusClosed
	cancel := s.cancel
	conn := s.conn
	workers := s.workers
	s.workers = make(map[string]*channelWorker)
	s.conn = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var closeErr error
	if conn != nil {
		closeErr = conn.Close()
	}
	for _, w := range workers {
		w.close()
	}
	s.wg.Wait()

	if closeErr != nil {
		return NewErrorWithCause(ErrCodeTransport, "failed to close subscriber connection", closeErr)
	}
	s.logger.Infof("Subscriber closed")
	return nil
}

// Status returns the current connection state.
func (s *Subscriber) Status() ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsConnected reports whether the broker connection is live.
func (s *Subscriber) IsConnected() bool {
	return s.Status() == StatusConnected
}

// Channels returns the currently registered channels, sorted.
func (s *Subscriber) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]string, 0, len(s.workers))
	for ch := range s.workers {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels
}

// receiveLoop reads messages from the broker connection and routes them to
// the per-channel workers. On connection loss it reconnects with bounded
// exponential backoff and resubscribes every registered channel.
func (s *Subscriber) receiveLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		msg, err := conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || s.Status() == StatusClosed {
				return
			}

			s.mu.Lock()
			s.status = StatusDisconnected
			s.mu.Unlock()
			s.logger.Warnf("Subscriber connection lost: %v", err)

			if !s.reestablish(ctx) {
				return
			}
			continue
		}

		s.route(ctx, msg)
	}
}

// reestablish reconnects under the backoff policy and resubscribes all
// registered channels. Returns false when the loop should stop (shutdown or
// exhaustion).
func (s *Subscriber) reestablish(ctx context.Context) bool {
	err := retry.Do(ctx, s.reconnect, func(ctx context.Context) error {
		s.mu.Lock()
		s.status = StatusConnecting
		channels := make([]string, 0, len(s.workers))
		for ch := range s.workers {
			channels = append(channels, ch)
		}
		old := s.conn
		s.mu.Unlock()

		if old != nil {
			_ = old.Close()
		}

		conn, err := s.broker.Subscribe(ctx, channels...)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.conn = conn
		s.status = StatusConnected
		s.mu.Unlock()

		s.logger.Infof("Subscriber reconnected, resubscribed %d channels", len(channels))
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		s.logger.Warnf("Reconnect attempt %d failed (next in %v): %v", attempt, delay, err)
	})

	if err == nil {
		return true
	}
	if ctx.Err() != nil || s.Status() == StatusClosed {
		return false
	}

	s.mu.Lock()
	s.status = StatusExhausted
	channels := make([]string, 0, len(s.workers))
	for ch := range s.workers {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	s.logger.Errorf("Reconnect attempts exhausted after %d tries, subscriber is inert: %v",
		s.reconnect.MaxAttempts, err)
	if nerr := s.notifications.NotifyReconnectExhausted(ctx, channels); nerr != nil {
		s.logger.Warnf("Failed to send reconnect exhaustion notification: %v", nerr)
	}
	return false
}

// route hands a message to its channel worker. Messages for channels without
// a registered callback are dropped silently (the broker may still deliver
// briefly after an unsubscribe).
func (s *Subscriber) route(ctx context.Context, msg Message) {
	s.mu.Lock()
	w, ok := s.workers[msg.Channel]
	s.mu.Unlock()
	if !ok {
		s.logger.Debugf("No callback for channel %s, dropping message", msg.Channel)
		return
	}

	select {
	case w.queue <- msg:
	case <-ctx.Done():
	case <-w.stopped:
	}
}
