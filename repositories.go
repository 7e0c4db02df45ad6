package eventstream

import (
	"context"
	"time"

	"github.com/coregx/eventstream/model"
)

// DeadLetterRepository defines the persistence interface for the dead-letter
// archive. The archive keeps DLQ envelopes inspectable and replayable after
// they leave the broker.
//
// Implementations must be safe for concurrent use. See adapters/relica for
// the SQL implementation.
type DeadLetterRepository interface {
	// Load retrieves an archived dead letter by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.ArchivedDeadLetter, error)

	// Save creates a new archive row (if ID=0) or updates an existing one.
	// Returns the saved row with populated ID.
	Save(ctx context.Context, m model.ArchivedDeadLetter) (model.ArchivedDeadLetter, error)

	// Delete permanently removes an archive row.
	// Should only be used after resolution or manual cleanup.
	Delete(ctx context.Context, m model.ArchivedDeadLetter) error

	// FindByEventID retrieves the archive row for a specific event.
	// Returns ErrNoData if not found.
	FindByEventID(ctx context.Context, eventID string) (model.ArchivedDeadLetter, error)

	// FindUnresolved retrieves unresolved archive rows.
	// Results are ordered by created_at ASC (oldest first).
	FindUnresolved(ctx context.Context, limit int) ([]model.ArchivedDeadLetter, error)

	// FindOlderThan retrieves archive rows older than the threshold.
	// Useful for identifying stuck items requiring attention.
	FindOlderThan(ctx context.Context, threshold time.Duration, limit int) ([]model.ArchivedDeadLetter, error)

	// GetStats retrieves archive statistics: totals, unresolved count and
	// oldest item age.
	GetStats(ctx context.Context) (model.DLQStats, error)

	// CountUnresolved returns the count of unresolved archive rows.
	// Useful for dashboard widgets and monitoring.
	CountUnresolved(ctx context.Context) (int, error)
}
