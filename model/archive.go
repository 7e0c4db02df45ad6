package model

import (
	"encoding/json"
	"time"
)

// ArchivedDeadLetter is a dead-letter envelope persisted to the SQL archive
// for inspection after it was published to the DLQ channel.
//
// The archive serves as:
//   - Failure audit log with full diagnostic information
//   - Manual intervention queue for operations teams
//   - Source for failure analysis and monitoring
//
// Items remain archived until manually resolved or deleted.
type ArchivedDeadLetter struct {
	ID        int64  `json:"id"`
	EventID   string `json:"eventId" db:"event_id"`
	EventType string `json:"eventType" db:"event_type"`

	// Failure information
	ErrorMessage string `json:"errorMessage" db:"error_message"`
	ErrorStack   string `json:"errorStack" db:"error_stack"`

	// Original envelope, denormalized as JSON for replay without joins
	EventData string `json:"eventData" db:"event_data"`

	FailedAt   time.Time `json:"failedAt" db:"failed_at"`
	ArchivedAt time.Time `json:"archivedAt" db:"archived_at"`

	// Lifecycle
	IsResolved     bool       `json:"isResolved" db:"is_resolved"`
	ResolvedAt     *time.Time `json:"resolvedAt" db:"resolved_at"`
	ResolvedBy     string     `json:"resolvedBy" db:"resolved_by"`
	ResolutionNote string     `json:"resolutionNote" db:"resolution_note"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TableName returns the database table name for ArchivedDeadLetter.
func (a ArchivedDeadLetter) TableName() string {
	return "eventstream_dead_letter"
}

// NewArchivedDeadLetter builds an archive row from a DLQ envelope.
// Returns an error when the original envelope cannot be re-encoded.
func NewArchivedDeadLetter(dl DeadLetter) (ArchivedDeadLetter, error) {
	raw, err := json.Marshal(dl.OriginalEvent)
	if err != nil {
		return ArchivedDeadLetter{}, err
	}
	now := time.Now().UTC()
	return ArchivedDeadLetter{
		ID:           0,
		EventID:      dl.OriginalEvent.EventID,
		EventType:    string(dl.OriginalEvent.EventType),
		ErrorMessage: dl.Error.Message,
		ErrorStack:   dl.Error.Stack,
		EventData:    string(raw),
		FailedAt:     dl.FailedAt,
		ArchivedAt:   now,
		IsResolved:   false,
		CreatedAt:    now,
	}, nil
}

// Resolve marks the archived item as manually resolved by an operator, after
// replay or after deciding the failure is acceptable.
func (a *ArchivedDeadLetter) Resolve(resolvedBy, note string) {
	now := time.Now().UTC()
	a.IsResolved = true
	a.ResolvedAt = &now
	a.ResolvedBy = resolvedBy
	a.ResolutionNote = note
}

// Age returns how long the item has been in the archive.
func (a *ArchivedDeadLetter) Age() time.Duration {
	return time.Since(a.ArchivedAt)
}

// IsOld checks if the item has been archived longer than the threshold.
// Used to identify stuck items that need urgent attention.
func (a *ArchivedDeadLetter) IsOld(threshold time.Duration) bool {
	return a.Age() > threshold
}

// OriginalEvent decodes the archived envelope for replay.
func (a *ArchivedDeadLetter) OriginalEvent() (Event, error) {
	var evt Event
	err := json.Unmarshal([]byte(a.EventData), &evt)
	return evt, err
}

// DLQStats represents aggregate statistics for the dead-letter archive.
// Used for monitoring dashboards and operational visibility.
type DLQStats struct {
	TotalItems      int       `json:"totalItems"`
	UnresolvedItems int       `json:"unresolvedItems"`
	ResolvedItems   int       `json:"resolvedItems"`
	OldestItemAge   int64     `json:"oldestItemAge"` // Seconds
	LastUpdated     time.Time `json:"lastUpdated"`
}
