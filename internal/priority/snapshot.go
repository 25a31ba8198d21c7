package priority

import (
	"context"
	"errors"
	"time"
)

// Snapshot errors.
var (
	ErrNoSnapshots = errors.New("no ranking snapshots recorded")
)

// Snapshot is a point-in-time record of the ranking's aggregate
// statistics. Dashboard loads always re-run the live pipeline; snapshots
// exist for history and reporting.
type Snapshot struct {
	ID         string
	TakenAt    time.Time
	Stats      Stats
	TopScore   int
	TopID      string
	DurationMS int64
}

// SnapshotRepository persists ranking snapshots.
type SnapshotRepository interface {
	// Save stores a snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot.
	// Returns ErrNoSnapshots when none exist.
	Latest(ctx context.Context) (*Snapshot, error)
}
