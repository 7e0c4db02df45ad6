package eventstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coregx/eventstream/model"
)

// DeadLetterArchiver consumes the DLQ channel and persists every dead-letter
// envelope to the SQL archive. It is an optional, out-of-band consumer: the
// delivery core works without it, but with it the DLQ becomes inspectable and
// replayable instead of fire-and-forget.
type DeadLetterArchiver struct {
	subscriber *Subscriber
	repository DeadLetterRepository
	logger     Logger
}

// ArchiverOption configures a DeadLetterArchiver.
type ArchiverOption func(*DeadLetterArchiver) error

// NewDeadLetterArchiver creates a new DeadLetterArchiver with the provided
// options.
//
// Required options:
//   - WithArchiverSubscriber: an initialized subscriber to attach to
//   - WithArchiverRepository: archive persistence
//   - WithArchiverLogger: logger instance
func NewDeadLetterArchiver(opts ...ArchiverOption) (*DeadLetterArchiver, error) {
	a := &DeadLetterArchiver{}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply archiver option", err)
		}
	}

	// Validate required dependencies
	if a.subscriber == nil {
		return nil, NewError(ErrCodeConfiguration, "Subscriber is required (use WithArchiverSubscriber)")
	}
	if a.repository == nil {
		return nil, NewError(ErrCodeConfiguration, "DeadLetterRepository is required (use WithArchiverRepository)")
	}
	if a.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithArchiverLogger)")
	}

	return a, nil
}

// WithArchiverSubscriber sets the subscriber the archiver attaches to.
func WithArchiverSubscriber(subscriber *Subscriber) ArchiverOption {
	return func(a *DeadLetterArchiver) error {
		if subscriber == nil {
			return fmt.Errorf("subscriber cannot be nil")
		}
		a.subscriber = subscriber
		return nil
	}
}

// WithArchiverRepository sets the archive persistence.
func WithArchiverRepository(repository DeadLetterRepository) ArchiverOption {
	return func(a *DeadLetterArchiver) error {
		if repository == nil {
			return fmt.Errorf("repository cannot be nil")
		}
		a.repository = repository
		return nil
	}
}

// WithArchiverLogger sets the logger instance.
func WithArchiverLogger(logger Logger) ArchiverOption {
	return func(a *DeadLetterArchiver) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		a.logger = logger
		return nil
	}
}

// Start subscribes the archiver to the DLQ channel. The subscriber must
// already be initialized. Malformed DLQ payloads and archive write failures
// are logged per message and never stop the subscription.
func (a *DeadLetterArchiver) Start(ctx context.Context) error {
	return a.subscriber.SubscribeRaw(ctx, model.ChannelDeadLetter, a.archive)
}

func (a *DeadLetterArchiver) archive(ctx context.Context, msg Message) {
	var dl model.DeadLetter
	if err := json.Unmarshal(msg.Payload, &dl); err != nil {
		a.logger.Errorf("Failed to parse dead letter (%d bytes): %v", len(msg.Payload), err)
		return
	}

	row, err := model.NewArchivedDeadLetter(dl)
	if err != nil {
		a.logger.Errorf("Failed to build archive row for event %s: %v", dl.OriginalEvent.EventID, err)
		return
	}

	saved, err := a.repository.Save(ctx, row)
	if err != nil {
		a.logger.Errorf("Failed to archive dead letter for event %s: %v", dl.OriginalEvent.EventID, err)
		return
	}

	a.logger.Infof("Archived dead letter: id=%d, eventId=%s, eventType=%s",
		saved.ID, saved.EventID, saved.EventType)
}

// Stats retrieves archive statistics for monitoring.
func (a *DeadLetterArchiver) Stats(ctx context.Context) (model.DLQStats, error) {
	return a.repository.GetStats(ctx)
}
