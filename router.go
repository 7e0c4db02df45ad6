package eventstream

import (
	"context"
	"fmt"
	"sync"

	"github.com/coregx/eventstream/model"
)

// Router is the composition root of the delivery core. It owns process-wide
// start/stop for event consumption: it subscribes one dispatch callback per
// logical channel on the Subscriber and demultiplexes each incoming event by
// its eventType to the registered handler.
//
// Routing is deliberately two-level: channel → single dispatch callback →
// eventType branch. The Subscriber keeps exactly one callback per channel;
// per-type fan-out happens inside the dispatch callback.
//
// The Router takes its dependencies as explicit constructor options assembled
// once at process start; it performs no service location of its own.
type Router struct {
	subscriber  *Subscriber
	deadLetters *DeadLetterer
	logger      Logger

	// handlers is populated at construction and only read during dispatch.
	handlers map[string]map[model.EventType]EventHandler

	mu    sync.Mutex
	ready bool
}

// RouterOption configures a Router.
type RouterOption func(*Router) error

// NewRouter creates a new Router with the provided options.
//
// Required options:
//   - WithRouterSubscriber: the subscriber owning the broker connection
//   - WithRouterHandlers: at least one event handler
//   - WithRouterLogger: logger instance
//
// Optional options:
//   - WithRouterDeadLetterer: DLQ emission for terminally failed events
func NewRouter(opts ...RouterOption) (*Router, error) {
	r := &Router{
		handlers: make(map[string]map[model.EventType]EventHandler),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply router option", err)
		}
	}

	// Validate required dependencies
	if r.subscriber == nil {
		return nil, NewError(ErrCodeConfiguration, "Subscriber is required (use WithRouterSubscriber)")
	}
	if r.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithRouterLogger)")
	}
	if len(r.handlers) == 0 {
		return nil, NewError(ErrCodeConfiguration, "at least one handler is required (use WithRouterHandlers)")
	}
	if r.deadLetters == nil {
		// Dead letters degrade to log-only when no publisher is wired.
		r.deadLetters = NewDeadLetterer(nil, r.logger)
	}

	return r, nil
}

// WithRouterSubscriber sets the subscriber instance.
func WithRouterSubscriber(subscriber *Subscriber) RouterOption {
	return func(r *Router) error {
		if subscriber == nil {
			return fmt.Errorf("subscriber cannot be nil")
		}
		r.subscriber = subscriber
		return nil
	}
}

// WithRouterLogger sets the logger instance.
func WithRouterLogger(logger Logger) RouterOption {
	return func(r *Router) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// WithRouterDeadLetterer sets the dead-letter emitter for events whose
// handler exhausted its retries.
func WithRouterDeadLetterer(deadLetters *DeadLetterer) RouterOption {
	return func(r *Router) error {
		if deadLetters == nil {
			return fmt.Errorf("dead letterer cannot be nil")
		}
		r.deadLetters = deadLetters
		return nil
	}
}

// WithRouterHandlers registers the concrete handlers. Exactly one handler may
// own a (channel, eventType) pair; duplicates are a configuration error.
func WithRouterHandlers(handlers ...EventHandler) RouterOption {
	return func(r *Router) error {
		for _, h := range handlers {
			if h == nil {
				return fmt.Errorf("handler cannot be nil")
			}
			channel := h.Channel()
			if channel == "" {
				return fmt.Errorf("handler %T has no channel", h)
			}
			byType, ok := r.handlers[channel]
			if !ok {
				byType = make(map[model.EventType]EventHandler)
				r.handlers[channel] = byType
			}
			if _, exists := byType[h.EventType()]; exists {
				return fmt.Errorf("duplicate handler for channel %s, eventType %s", channel, h.EventType())
			}
			byType[h.EventType()] = h
		}
		return nil
	}
}

// Initialize connects the subscriber and registers one dispatch callback per
// logical channel. It is idempotent: a second call logs a warning and
// returns. Failures (e.g. broker unreachable) are caught and logged, never
// propagated: the pub/sub subsystem is best-effort infrastructure, not a
// hard dependency for process liveness. Check IsReady to observe the outcome.
func (r *Router) Initialize(ctx context.Context) {
	r.mu.Lock()
	if r.ready {
		r.mu.Unlock()
		r.logger.Warnf("Router already initialized, ignoring")
		return
	}
	r.mu.Unlock()

	if err := r.subscriber.Initialize(ctx); err != nil {
		r.logger.Errorf("Router initialization failed, event delivery disabled: %v", err)
		return
	}

	for channel := range r.handlers {
		ch := channel
		if err := r.subscriber.Subscribe(ctx, ch, func(ctx context.Context, evt model.Event) {
			r.dispatch(ctx, ch, evt)
		}); err != nil {
			r.logger.Errorf("Router failed to subscribe channel %s, event delivery disabled: %v", ch, err)
			if cerr := r.subscriber.Close(); cerr != nil {
				r.logger.Warnf("Failed to close subscriber after bad start: %v", cerr)
			}
			return
		}
	}

	r.mu.Lock()
	r.ready = true
	r.mu.Unlock()
	r.logger.Infof("Router initialized: %d channels", len(r.handlers))
}

// Shutdown disconnects the subscriber, releasing all channel subscriptions.
// Calling it on an uninitialized router is a no-op. Shutdown errors are
// caught and logged, never thrown.
func (r *Router) Shutdown(_ context.Context) {
	r.mu.Lock()
	if !r.ready {
		r.mu.Unlock()
		return
	}
	r.ready = false
	r.mu.Unlock()

	if err := r.subscriber.Close(); err != nil {
		r.logger.Errorf("Router shutdown error: %v", err)
		return
	}
	r.logger.Infof("Router shut down")
}

// IsReady reports whether Initialize completed successfully and Shutdown has
// not since been called.
func (r *Router) IsReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// dispatch matches an event's type discriminant to the channel's handler and
// invokes it. An unrecognized eventType on a known channel is logged as a
// warning and dropped, so new event types degrade gracefully. A handler's
// terminal failure is dead-lettered and logged; it never breaks the channel
// subscription.
func (r *Router) dispatch(ctx context.Context, channel string, evt model.Event) {
	handler, ok := r.handlers[channel][evt.EventType]
	if !ok {
		r.logger.Warnf("No handler for eventType %s on channel %s, dropping event %s",
			evt.EventType, channel, evt.EventID)
		return
	}

	if err := handler.Handle(ctx, evt); err != nil {
		r.logger.Errorf("Handler failed terminally for event %s on channel %s: %v",
			evt.EventID, channel, err)
		r.deadLetters.Send(ctx, evt, err)
	}
}
