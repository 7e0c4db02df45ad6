package eventstream

import (
	"context"
	"fmt"
	"time"

	"github.com/coregx/eventstream/model"
	"github.com/coregx/eventstream/retry"
)

// EventHandler consumes one typed event. Concrete handlers differ only in
// their retry policy and the side effect performed per event; the retry and
// logging machinery lives in BaseHandler, composed rather than inherited.
//
// Handle must tolerate concurrent invocation with distinct events and must be
// idempotent: at-least-once delivery means duplicates happen.
type EventHandler interface {
	// Channel returns the logical channel the handler listens on.
	Channel() string

	// EventType returns the discriminant the handler is responsible for.
	EventType() model.EventType

	// Handle processes one event, retrying internally per the handler's
	// policy. A returned error means the retries are exhausted; the caller
	// routes the event to dead-lettering.
	Handle(ctx context.Context, evt model.Event) error
}

// BaseHandler carries the shared retry/logging machinery every concrete
// handler composes. Execute wraps the business operation in retry with
// exponential backoff and emits the uniform received/succeeded/failed
// lifecycle logs keyed by eventId and correlationId.
type BaseHandler struct {
	name          string
	logger        Logger
	policy        retry.Policy
	notifications NotificationService
}

// NewBaseHandler creates the shared handler core.
func NewBaseHandler(name string, logger Logger, policy retry.Policy) BaseHandler {
	if logger == nil {
		logger = &NoopLogger{}
	}
	return BaseHandler{
		name:          name,
		logger:        logger,
		policy:        policy,
		notifications: &NoOpNotificationService{},
	}
}

// WithNotifications attaches a notification service for per-attempt failures.
func (b BaseHandler) WithNotifications(service NotificationService) BaseHandler {
	if service != nil {
		b.notifications = service
	}
	return b
}

// Policy returns the handler's retry policy.
func (b *BaseHandler) Policy() retry.Policy {
	return b.policy
}

// Execute runs op under the handler's retry policy. On success it returns
// nil after at most MaxAttempts invocations; on exhaustion it returns a
// HANDLER_ERROR carrying the last failure, for the caller to dead-letter.
func (b *BaseHandler) Execute(ctx context.Context, evt model.Event, op func(context.Context) error) error {
	b.logEventReceived(evt)

	err := retry.Do(ctx, b.policy, op, func(attempt int, opErr error, delay time.Duration) {
		b.logger.Warnf("%s: attempt %d failed for event %s, retrying in %v: %v",
			b.name, attempt, evt.EventID, delay, opErr)
		if nerr := b.notifications.NotifyHandlerFailure(ctx, evt, attempt, opErr); nerr != nil {
			b.logger.Warnf("%s: failed to send handler failure notification: %v", b.name, nerr)
		}
	})
	if err != nil {
		b.logger.Errorf("%s: event %s failed after %d attempts: %v",
			b.name, evt.EventID, b.policy.MaxAttempts, err)
		return NewErrorWithCause(ErrCodeHandler,
			fmt.Sprintf("%s failed for event %s", b.name, evt.EventID), err)
	}

	b.logEventSuccess(evt)
	return nil
}

// logEventReceived emits the uniform pre-processing lifecycle entry.
func (b *BaseHandler) logEventReceived(evt model.Event) {
	b.logger.Infof("%s: received event: eventId=%s, eventType=%s, correlationId=%s",
		b.name, evt.EventID, evt.EventType, evt.CorrelationID)
}

// logEventSuccess emits the uniform post-processing lifecycle entry.
func (b *BaseHandler) logEventSuccess(evt model.Event) {
	b.logger.Infof("%s: processed event: eventId=%s, eventType=%s, correlationId=%s",
		b.name, evt.EventID, evt.EventType, evt.CorrelationID)
}
