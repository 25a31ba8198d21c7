package obstacle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/accesspath/accesspath/internal/lifecycle"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu        sync.RWMutex
	obstacles map[string]*Obstacle
	votes     map[string]map[string]bool // obstacleID -> reporterID -> voted
}

// NewInMemoryRepository creates a new in-memory obstacle repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		obstacles: make(map[string]*Obstacle),
		votes:     make(map[string]map[string]bool),
	}
}

// Get retrieves an obstacle by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Obstacle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.obstacles[id]
	if !ok {
		return nil, ErrObstacleNotFound
	}

	// Return a copy
	cpy := *o
	return &cpy, nil
}

// List retrieves obstacles matching the filter with pagination.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	obstacles := r.matching(opts.Filter)

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	if opts.Cursor != "" {
		for i, o := range obstacles {
			if o.ID == opts.Cursor {
				obstacles = obstacles[i+1:]
				break
			}
		}
	}

	result := &ListResult{Items: obstacles}

	if len(obstacles) > limit {
		result.Items = obstacles[:limit]
		result.NextCursor = obstacles[limit-1].ID
	}

	return result, nil
}

// ListAll retrieves every obstacle matching the filter.
func (r *InMemoryRepository) ListAll(_ context.Context, filter ListFilter) ([]*Obstacle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.matching(filter), nil
}

// Create creates a new obstacle.
func (r *InMemoryRepository) Create(_ context.Context, o *Obstacle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *o
	r.obstacles[o.ID] = &cpy
	return nil
}

// UpdateStatus sets the obstacle's status. Last write wins.
func (r *InMemoryRepository) UpdateStatus(_ context.Context, id string, status lifecycle.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.obstacles[id]
	if !ok {
		return ErrObstacleNotFound
	}

	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

// AddVote records a vote and adjusts the obstacle's counters.
func (r *InMemoryRepository) AddVote(_ context.Context, vote *Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.obstacles[vote.ObstacleID]
	if !ok {
		return ErrObstacleNotFound
	}

	voters := r.votes[vote.ObstacleID]
	if voters == nil {
		voters = make(map[string]bool)
		r.votes[vote.ObstacleID] = voters
	}
	if voters[vote.ReporterID] {
		return ErrDuplicateVote
	}
	voters[vote.ReporterID] = true

	if vote.Up {
		o.Upvotes++
	} else {
		o.Downvotes++
	}
	o.UpdatedAt = time.Now()
	return nil
}

// matching returns copies of obstacles matching the filter, newest first.
func (r *InMemoryRepository) matching(filter ListFilter) []*Obstacle {
	var obstacles []*Obstacle
	for _, o := range r.obstacles {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Type != "" && o.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && o.Severity != filter.Severity {
			continue
		}
		cpy := *o
		obstacles = append(obstacles, &cpy)
	}

	sort.SliceStable(obstacles, func(i, j int) bool {
		return obstacles[i].CreatedAt.After(obstacles[j].CreatedAt)
	})

	return obstacles
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
