package obstacle

import (
	"context"

	"github.com/accesspath/accesspath/internal/lifecycle"
)

// ListFilter narrows a listing to matching obstacles.
// Zero values mean "no filter" for that attribute.
type ListFilter struct {
	Status   lifecycle.Status
	Type     Type
	Severity Severity
}

// ListOptions contains options for listing obstacles.
type ListOptions struct {
	Filter ListFilter
	Limit  int
	Cursor string
}

// ListResult contains the results of listing obstacles.
type ListResult struct {
	Items      []*Obstacle
	NextCursor string
}

// Repository defines the interface for obstacle data persistence.
type Repository interface {
	// Get retrieves an obstacle by ID.
	// Returns ErrObstacleNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*Obstacle, error)

	// List retrieves obstacles matching the filter, newest first,
	// with cursor pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// ListAll retrieves every obstacle matching the filter without
	// pagination. Obstacle volumes are small (hundreds, not millions),
	// so the ranking pipeline loads the full set on every run.
	ListAll(ctx context.Context, filter ListFilter) ([]*Obstacle, error)

	// Create creates a new obstacle.
	Create(ctx context.Context, o *Obstacle) error

	// UpdateStatus sets the obstacle's status. Last write wins: the store
	// does not serialize concurrent transition requests for the same
	// obstacle.
	UpdateStatus(ctx context.Context, id string, status lifecycle.Status) error

	// AddVote records a vote and adjusts the obstacle's counters.
	// Returns ErrDuplicateVote if the reporter has already voted on
	// this obstacle.
	AddVote(ctx context.Context, vote *Vote) error
}
