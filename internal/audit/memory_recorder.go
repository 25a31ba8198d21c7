package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/accesspath/accesspath/internal/lifecycle"
)

// Trail is a Recorder whose entries can be read back per obstacle.
type Trail interface {
	lifecycle.Recorder

	// History returns the recorded changes for one obstacle, oldest
	// first. Returns ErrNoHistory when there are none.
	History(ctx context.Context, obstacleID string) ([]Entry, error)
}

// InMemoryRecorder is an in-memory Trail, intended for testing.
type InMemoryRecorder struct {
	mu      sync.RWMutex
	entries []Entry

	// FailWith, when set, makes Record return this error. Used by tests
	// to exercise the best-effort audit path.
	FailWith error
}

// NewInMemoryRecorder creates a new in-memory audit recorder.
func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Record appends a status change.
func (r *InMemoryRecorder) Record(_ context.Context, change lifecycle.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}

	r.entries = append(r.entries, Entry{
		ID:     fmt.Sprintf("chg_%06d", len(r.entries)+1),
		Change: change,
	})
	return nil
}

// History returns the recorded changes for one obstacle, oldest first.
func (r *InMemoryRecorder) History(_ context.Context, obstacleID string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []Entry
	for _, e := range r.entries {
		if e.Change.ObstacleID == obstacleID {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, ErrNoHistory
	}
	return entries, nil
}

// Entries returns a copy of every recorded entry.
func (r *InMemoryRecorder) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Ensure InMemoryRecorder implements Trail.
var _ Trail = (*InMemoryRecorder)(nil)
