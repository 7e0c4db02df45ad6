package eventstream

import (
	"context"

	"github.com/coregx/eventstream/model"
)

// NotificationService defines an optional interface for alerting on delivery
// failures. Implementations might send emails, Slack messages, or page an
// on-call rotation; the delivery core only reports, it never escalates.
type NotificationService interface {
	// NotifyDeadLetter is called when an event is published to the DLQ
	// channel after exhausting all handler retries.
	NotifyDeadLetter(ctx context.Context, dl model.DeadLetter) error

	// NotifyHandlerFailure is called for every failed handler attempt.
	// This is informational and happens before dead-lettering.
	NotifyHandlerFailure(ctx context.Context, evt model.Event, attempt int, err error) error

	// NotifyReconnectExhausted is called when the subscriber gives up
	// reconnecting. The listed channels no longer receive events.
	NotifyReconnectExhausted(ctx context.Context, channels []string) error
}

// NoOpNotificationService is a no-op implementation of NotificationService.
// Use this when notifications are not needed.
type NoOpNotificationService struct{}

// NotifyDeadLetter does nothing.
func (n *NoOpNotificationService) NotifyDeadLetter(_ context.Context, _ model.DeadLetter) error {
	return nil
}

// NotifyHandlerFailure does nothing.
func (n *NoOpNotificationService) NotifyHandlerFailure(_ context.Context, _ model.Event, _ int, _ error) error {
	return nil
}

// NotifyReconnectExhausted does nothing.
func (n *NoOpNotificationService) NotifyReconnectExhausted(_ context.Context, _ []string) error {
	return nil
}

// LoggingNotificationService is a simple implementation that logs
// notifications.
type LoggingNotificationService struct {
	logger Logger
}

// NewLoggingNotificationService creates a new LoggingNotificationService.
func NewLoggingNotificationService(logger Logger) *LoggingNotificationService {
	return &LoggingNotificationService{logger: logger}
}

// NotifyDeadLetter logs the dead-lettered event.
func (n *LoggingNotificationService) NotifyDeadLetter(_ context.Context, dl model.DeadLetter) error {
	n.logger.Warnf("Event moved to DLQ: eventId=%s, eventType=%s, error=%s",
		dl.OriginalEvent.EventID, dl.OriginalEvent.EventType, dl.Error.Message)
	return nil
}

// NotifyHandlerFailure logs the failed attempt.
func (n *LoggingNotificationService) NotifyHandlerFailure(_ context.Context, evt model.Event, attempt int, err error) error {
	n.logger.Warnf("Handler attempt %d failed: eventId=%s, eventType=%s, error=%v",
		attempt, evt.EventID, evt.EventType, err)
	return nil
}

// NotifyReconnectExhausted logs the terminal reconnect failure.
func (n *LoggingNotificationService) NotifyReconnectExhausted(_ context.Context, channels []string) error {
	n.logger.Errorf("Subscriber reconnect exhausted, channels inactive: %v", channels)
	return nil
}
