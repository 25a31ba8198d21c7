package priority

import (
	"context"
	"sync"
)

// InMemorySnapshotRepository is an in-memory implementation of
// SnapshotRepository, intended for testing.
type InMemorySnapshotRepository struct {
	mu        sync.RWMutex
	snapshots []*Snapshot
}

// NewInMemorySnapshotRepository creates a new in-memory snapshot repository.
func NewInMemorySnapshotRepository() *InMemorySnapshotRepository {
	return &InMemorySnapshotRepository{}
}

// Save stores a snapshot.
func (r *InMemorySnapshotRepository) Save(_ context.Context, snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *snap
	r.snapshots = append(r.snapshots, &cpy)
	return nil
}

// Latest returns the most recently saved snapshot.
func (r *InMemorySnapshotRepository) Latest(_ context.Context) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.snapshots) == 0 {
		return nil, ErrNoSnapshots
	}

	cpy := *r.snapshots[len(r.snapshots)-1]
	return &cpy, nil
}

// Count returns how many snapshots have been saved.
func (r *InMemorySnapshotRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshots)
}

// Ensure InMemorySnapshotRepository implements SnapshotRepository.
var _ SnapshotRepository = (*InMemorySnapshotRepository)(nil)
