// Package relica provides the SQL implementation of the eventstream
// dead-letter archive using the Relica query builder. MySQL, PostgreSQL and
// SQLite are supported through their database/sql drivers.
package relica

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coregx/relica"

	"github.com/coregx/eventstream"
	"github.com/coregx/eventstream/model"
)

// DeadLetterRepository implements eventstream.DeadLetterRepository on SQL.
type DeadLetterRepository struct {
	db    *relica.DB
	table string
}

// NewDeadLetterRepository creates the archive repository.
// driverName must be "mysql", "postgres" or "sqlite3".
func NewDeadLetterRepository(sqlDB *sql.DB, driverName string) *DeadLetterRepository {
	return &DeadLetterRepository{
		db:    relica.WrapDB(sqlDB, driverName),
		table: model.ArchivedDeadLetter{}.TableName(),
	}
}

// Load retrieves an archive row by ID.
func (r *DeadLetterRepository) Load(ctx context.Context, id int64) (model.ArchivedDeadLetter, error) {
	var row model.ArchivedDeadLetter
	err := r.db.WithContext(ctx).Select("*").From(r.table).Where("id = ?", id).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return row, eventstream.ErrNoData
	}
	if err != nil {
		return row, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to load dead letter", err)
	}
	return row, nil
}

// Save creates or updates an archive row.
func (r *DeadLetterRepository) Save(ctx context.Context, m model.ArchivedDeadLetter) (model.ArchivedDeadLetter, error) {
	if m.ID == 0 {
		err := r.db.WithContext(ctx).Model(&m).Table(r.table).Insert()
		if err != nil {
			return m, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to insert dead letter", err)
		}
		return m, nil
	}

	err := r.db.WithContext(ctx).Model(&m).Table(r.table).Update()
	if err != nil {
		return m, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to update dead letter", err)
	}
	return m, nil
}

// Delete removes an archive row.
func (r *DeadLetterRepository) Delete(ctx context.Context, m model.ArchivedDeadLetter) error {
	err := r.db.WithContext(ctx).Model(&m).Table(r.table).Delete()
	if err != nil {
		return eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to delete dead letter", err)
	}
	return nil
}

// FindByEventID retrieves the archive row for a specific event.
func (r *DeadLetterRepository) FindByEventID(ctx context.Context, eventID string) (model.ArchivedDeadLetter, error) {
	var row model.ArchivedDeadLetter
	err := r.db.WithContext(ctx).Select("*").From(r.table).Where("event_id = ?", eventID).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return row, eventstream.ErrNoData
	}
	if err != nil {
		return row, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to find dead letter by event", err)
	}
	return row, nil
}

// FindUnresolved retrieves unresolved archive rows, oldest first.
func (r *DeadLetterRepository) FindUnresolved(ctx context.Context, limit int) ([]model.ArchivedDeadLetter, error) {
	var rows []model.ArchivedDeadLetter
	err := r.db.WithContext(ctx).Select("*").
		From(r.table).
		Where("is_resolved = ?", false).
		OrderBy("created_at ASC").
		Limit(int64(limit)).
		All(&rows)
	if err != nil {
		return nil, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to find unresolved dead letters", err)
	}
	if len(rows) == 0 {
		return nil, eventstream.ErrNoData
	}
	return rows, nil
}

// FindOlderThan retrieves archive rows older than the threshold, oldest first.
func (r *DeadLetterRepository) FindOlderThan(ctx context.Context, threshold time.Duration, limit int) ([]model.ArchivedDeadLetter, error) {
	var rows []model.ArchivedDeadLetter
	cutoffTime := time.Now().Add(-threshold)
	err := r.db.WithContext(ctx).Select("*").
		From(r.table).
		Where("created_at < ?", cutoffTime).
		OrderBy("created_at ASC").
		Limit(int64(limit)).
		All(&rows)
	if err != nil {
		return nil, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to find old dead letters", err)
	}
	if len(rows) == 0 {
		return nil, eventstream.ErrNoData
	}
	return rows, nil
}

// GetStats retrieves archive statistics.
func (r *DeadLetterRepository) GetStats(ctx context.Context) (model.DLQStats, error) {
	var stats model.DLQStats
	var totalCount, unresolvedCount int64

	err := r.db.WithContext(ctx).Select("COUNT(*)").From(r.table).One(&totalCount)
	if err != nil {
		return stats, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to count dead letters", err)
	}
	stats.TotalItems = int(totalCount)

	err = r.db.WithContext(ctx).Select("COUNT(*)").From(r.table).Where("is_resolved = ?", false).One(&unresolvedCount)
	if err != nil {
		return stats, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to count unresolved dead letters", err)
	}
	stats.UnresolvedItems = int(unresolvedCount)
	stats.ResolvedItems = stats.TotalItems - stats.UnresolvedItems

	var oldest model.ArchivedDeadLetter
	err = r.db.WithContext(ctx).Select("*").
		From(r.table).
		OrderBy("archived_at ASC").
		Limit(1).
		One(&oldest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return stats, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to load oldest dead letter", err)
	}
	if err == nil {
		stats.OldestItemAge = int64(oldest.Age().Seconds())
	}

	stats.LastUpdated = time.Now().UTC()
	return stats, nil
}

// CountUnresolved returns the count of unresolved archive rows.
func (r *DeadLetterRepository) CountUnresolved(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Select("COUNT(*)").From(r.table).Where("is_resolved = ?", false).One(&count)
	if err != nil {
		return 0, eventstream.NewErrorWithCause(eventstream.ErrCodeDatabase, "failed to count unresolved dead letters", err)
	}
	return int(count), nil
}
