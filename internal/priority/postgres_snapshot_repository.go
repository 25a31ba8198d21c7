package priority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesspath/accesspath/internal/lifecycle"
)

// PostgresSnapshotRepository is a PostgreSQL implementation of
// SnapshotRepository. Status and category counts are stored as JSONB so
// adding an enum value is not a schema change.
type PostgresSnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSnapshotRepository creates a new PostgreSQL snapshot repository.
func NewPostgresSnapshotRepository(pool *pgxpool.Pool) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{pool: pool}
}

// Save stores a snapshot.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, snap *Snapshot) error {
	byStatus, err := json.Marshal(snap.Stats.ByStatus)
	if err != nil {
		return fmt.Errorf("marshaling status counts: %w", err)
	}
	byCategory, err := json.Marshal(snap.Stats.ByCategory)
	if err != nil {
		return fmt.Errorf("marshaling category counts: %w", err)
	}

	query := `
		INSERT INTO ranking_snapshots (
			id, taken_at, total, by_status, by_category,
			urgent, average_score, top_score, top_id, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		snap.ID,
		snap.TakenAt,
		snap.Stats.Total,
		byStatus,
		byCategory,
		snap.Stats.Urgent,
		snap.Stats.AverageScore,
		snap.TopScore,
		snap.TopID,
		snap.DurationMS,
	)
	return err
}

// Latest returns the most recent snapshot.
func (r *PostgresSnapshotRepository) Latest(ctx context.Context) (*Snapshot, error) {
	query := `
		SELECT id, taken_at, total, by_status, by_category,
		       urgent, average_score, top_score, top_id, duration_ms
		FROM ranking_snapshots
		ORDER BY taken_at DESC
		LIMIT 1
	`

	var (
		snap                 Snapshot
		byStatus, byCategory []byte
	)

	err := r.pool.QueryRow(ctx, query).Scan(
		&snap.ID,
		&snap.TakenAt,
		&snap.Stats.Total,
		&byStatus,
		&byCategory,
		&snap.Stats.Urgent,
		&snap.Stats.AverageScore,
		&snap.TopScore,
		&snap.TopID,
		&snap.DurationMS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshots
		}
		return nil, err
	}

	snap.Stats.ByStatus = make(map[lifecycle.Status]int)
	if err := json.Unmarshal(byStatus, &snap.Stats.ByStatus); err != nil {
		return nil, fmt.Errorf("unmarshaling status counts: %w", err)
	}
	snap.Stats.ByCategory = make(map[Category]int)
	if err := json.Unmarshal(byCategory, &snap.Stats.ByCategory); err != nil {
		return nil, fmt.Errorf("unmarshaling category counts: %w", err)
	}

	return &snap, nil
}

// Ensure PostgresSnapshotRepository implements SnapshotRepository.
var _ SnapshotRepository = (*PostgresSnapshotRepository)(nil)
