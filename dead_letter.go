package eventstream

import (
	"context"

	"github.com/coregx/eventstream/model"
)

// DeadLetterer publishes dead-letter envelopes for events whose handler
// exhausted all retries. Dead-lettering is best-effort: a failing DLQ publish
// is logged but never surfaced, so a second failure path cannot cascade out
// of the first.
type DeadLetterer struct {
	publisher     *Publisher
	logger        Logger
	notifications NotificationService
}

// NewDeadLetterer creates a DeadLetterer on top of the given publisher.
// A nil publisher is allowed: dead letters are then logged only.
func NewDeadLetterer(publisher *Publisher, logger Logger) *DeadLetterer {
	return &DeadLetterer{
		publisher:     publisher,
		logger:        logger,
		notifications: &NoOpNotificationService{},
	}
}

// WithNotifications attaches a notification service for DLQ additions.
func (d *DeadLetterer) WithNotifications(service NotificationService) *DeadLetterer {
	if service != nil {
		d.notifications = service
	}
	return d
}

// Send wraps the failed event in a dead-letter envelope and publishes it to
// the DLQ channel. Without a publisher the envelope is only logged.
func (d *DeadLetterer) Send(ctx context.Context, evt model.Event, cause error) {
	dl := model.NewDeadLetter(evt, cause)

	if d.publisher == nil {
		d.logger.Errorf("No DLQ publisher configured, dead letter logged only: eventId=%s, error=%s",
			evt.EventID, dl.Error.Message)
		return
	}

	if err := d.publisher.PublishJSON(ctx, model.ChannelDeadLetter, dl); err != nil {
		d.logger.Errorf("Failed to publish dead letter for event %s: %v", evt.EventID, err)
		return
	}

	d.logger.Warnf("Dead-lettered event %s (type=%s) to %s: %s",
		evt.EventID, evt.EventType, model.ChannelDeadLetter, dl.Error.Message)

	if err := d.notifications.NotifyDeadLetter(ctx, dl); err != nil {
		d.logger.Warnf("Failed to send DLQ notification: %v", err)
	}
}
