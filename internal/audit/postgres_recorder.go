// Package audit provides implementations of the lifecycle.Recorder
// contract: an immutable, insert-only trail of status changes.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesspath/accesspath/internal/lifecycle"
)

// Audit errors.
var (
	ErrNoHistory = errors.New("no status changes recorded for obstacle")
)

// Entry is a persisted status change with its store-assigned identifier.
type Entry struct {
	ID     string
	Change lifecycle.StatusChange
}

// PostgresRecorder appends status changes to the status_changes table.
// Rows are insert-only; nothing updates or deletes them.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a new PostgreSQL audit recorder.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// Record persists a status change. The recorder assigns the row ID.
func (r *PostgresRecorder) Record(ctx context.Context, change lifecycle.StatusChange) error {
	query := `
		INSERT INTO status_changes (
			id, obstacle_id, from_status, to_status, actor_id, notes, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		"chg_"+uuid.New().String()[:22],
		change.ObstacleID,
		string(change.From),
		string(change.To),
		change.ActorID,
		change.Notes,
		change.RecordedAt,
	)
	return err
}

// History returns the recorded changes for one obstacle, oldest first.
// Returns ErrNoHistory when the obstacle has no recorded changes.
func (r *PostgresRecorder) History(ctx context.Context, obstacleID string) ([]Entry, error) {
	query := `
		SELECT id, obstacle_id, from_status, to_status, actor_id, notes, recorded_at
		FROM status_changes
		WHERE obstacle_id = $1
		ORDER BY recorded_at ASC
	`

	rows, err := r.pool.Query(ctx, query, obstacleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoHistory
	}
	return entries, nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			from, to   string
			recordedAt time.Time
		)
		err := rows.Scan(
			&e.ID,
			&e.Change.ObstacleID,
			&from,
			&to,
			&e.Change.ActorID,
			&e.Change.Notes,
			&recordedAt,
		)
		if err != nil {
			return nil, err
		}
		e.Change.From = lifecycle.ParseStatus(from)
		e.Change.To = lifecycle.ParseStatus(to)
		e.Change.RecordedAt = recordedAt
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Ensure PostgresRecorder implements the lifecycle contract.
var _ lifecycle.Recorder = (*PostgresRecorder)(nil)
