package priority

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/accesspath/accesspath/internal/api/models"
	"github.com/accesspath/accesspath/internal/obstacle"
)

// Service runs the ranking pipeline over the live obstacle set.
type Service struct {
	repo      obstacle.Repository
	snapshots SnapshotRepository
	logger    zerolog.Logger
	now       func() time.Time
}

// ServiceConfig holds configuration for the priority service.
type ServiceConfig struct {
	Repo      obstacle.Repository
	Snapshots SnapshotRepository
	Logger    zerolog.Logger
}

// NewService creates a new priority service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:      cfg.Repo,
		snapshots: cfg.Snapshots,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Ranked loads every obstacle matching the filter, scores the set, and
// returns it ordered by descending priority with aggregate statistics.
// Scores are always computed from current data, never read from storage.
func (s *Service) Ranked(ctx context.Context, filter obstacle.ListFilter) (*models.RankedObstacles, error) {
	ranked, stats, err := s.rank(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]models.RankedObstacle, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, models.RankedObstacle{
			Obstacle: obstacle.ToAPI(r.Obstacle),
			Priority: toAPIPriority(r.Priority),
		})
	}

	return &models.RankedObstacles{
		Items: items,
		Stats: toAPIStats(stats),
	}, nil
}

// Assess scores a single obstacle by ID.
func (s *Service) Assess(ctx context.Context, obstacleID string) (*models.RankedObstacle, error) {
	o, err := s.repo.Get(ctx, obstacleID)
	if err != nil {
		return nil, err
	}

	return &models.RankedObstacle{
		Obstacle: obstacle.ToAPI(o),
		Priority: toAPIPriority(Calculate(o)),
	}, nil
}

// Stats returns the aggregate statistics for the current obstacle set.
func (s *Service) Stats(ctx context.Context, filter obstacle.ListFilter) (*models.ObstacleStats, error) {
	_, stats, err := s.rank(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := toAPIStats(stats)
	return &result, nil
}

// RefreshSnapshot runs the full pipeline and persists a snapshot of the
// resulting statistics. Used by the background worker.
func (s *Service) RefreshSnapshot(ctx context.Context) (*Snapshot, error) {
	started := s.now()

	ranked, stats, err := s.rank(ctx, obstacle.ListFilter{})
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:         "snap_" + uuid.New().String()[:22],
		TakenAt:    started,
		Stats:      stats,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if len(ranked) > 0 {
		snap.TopScore = ranked[0].Priority.Score
		snap.TopID = ranked[0].Obstacle.ID
	}

	if err := s.snapshots.Save(ctx, snap); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("snapshot_id", snap.ID).
		Int("total", stats.Total).
		Int("urgent", stats.Urgent).
		Int64("duration_ms", snap.DurationMS).
		Msg("ranking snapshot saved")

	return snap, nil
}

// LatestSnapshot returns the most recent persisted snapshot.
func (s *Service) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	return s.snapshots.Latest(ctx)
}

func (s *Service) rank(ctx context.Context, filter obstacle.ListFilter) ([]RankedObstacle, Stats, error) {
	obstacles, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, Stats{}, err
	}

	ranked := Rank(obstacles)
	return ranked, ComputeStats(ranked), nil
}

func toAPIPriority(r Result) models.Priority {
	return models.Priority{
		Score:                  r.Score,
		Category:               string(r.Category),
		Recommendation:         r.Recommendation,
		ImplementationCategory: string(r.ImplementationCategory),
		Timeframe:              r.Timeframe,
		Breakdown: models.PriorityBreakdown{
			SeverityPoints:  r.Breakdown.SeverityPoints,
			CommunityPoints: r.Breakdown.CommunityPoints,
			CriticalPoints:  r.Breakdown.CriticalPoints,
			AdminPoints:     r.Breakdown.AdminPoints,
		},
	}
}

func toAPIStats(stats Stats) models.ObstacleStats {
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}

	// Every category appears in the response, zero or not.
	byCategory := make(map[string]int, len(AllCategories()))
	for _, c := range AllCategories() {
		byCategory[string(c)] = stats.ByCategory[c]
	}

	return models.ObstacleStats{
		Total:        stats.Total,
		ByStatus:     byStatus,
		ByCategory:   byCategory,
		Urgent:       stats.Urgent,
		AverageScore: stats.AverageScore,
	}
}
