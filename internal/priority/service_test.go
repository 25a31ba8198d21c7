package priority_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/accesspath/accesspath/internal/lifecycle"
	"github.com/accesspath/accesspath/internal/obstacle"
	"github.com/accesspath/accesspath/internal/priority"
)

func newPipeline(t *testing.T) (*priority.Service, *obstacle.InMemoryRepository, *priority.InMemorySnapshotRepository) {
	t.Helper()
	repo := obstacle.NewInMemoryRepository()
	snapshots := priority.NewInMemorySnapshotRepository()
	service := priority.NewService(priority.ServiceConfig{
		Repo:      repo,
		Snapshots: snapshots,
		Logger:    zerolog.Nop(),
	})
	return service, repo, snapshots
}

func seed(t *testing.T, repo *obstacle.InMemoryRepository, obstacles ...*obstacle.Obstacle) {
	t.Helper()
	for _, o := range obstacles {
		if err := repo.Create(context.Background(), o); err != nil {
			t.Fatalf("failed to seed obstacle %s: %v", o.ID, err)
		}
	}
}

func TestService_Ranked(t *testing.T) {
	service, repo, _ := newPipeline(t)

	seed(t, repo,
		&obstacle.Obstacle{ID: "obs_low", Type: obstacle.TypeOther, Severity: obstacle.SeverityLow, Status: lifecycle.StatusPending},
		&obstacle.Obstacle{ID: "obs_top", Type: obstacle.TypeStairsNoRamp, Severity: obstacle.SeverityBlocking, Upvotes: 15, Downvotes: 1, Status: lifecycle.StatusVerified},
	)

	result, err := service.Ranked(context.Background(), obstacle.ListFilter{})
	if err != nil {
		t.Fatalf("failed to rank: %v", err)
	}

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 ranked obstacles, got %d", len(result.Items))
	}
	if result.Items[0].Obstacle.ID != "obs_top" {
		t.Errorf("expected obs_top first, got %s", result.Items[0].Obstacle.ID)
	}
	if result.Items[0].Priority.Score != 100 {
		t.Errorf("expected top score 100, got %d", result.Items[0].Priority.Score)
	}
	if result.Items[0].Priority.Category != "CRITICAL" {
		t.Errorf("expected CRITICAL, got %s", result.Items[0].Priority.Category)
	}
	if result.Stats.Total != 2 {
		t.Errorf("expected total 2, got %d", result.Stats.Total)
	}
}

func TestService_Ranked_Empty(t *testing.T) {
	service, _, _ := newPipeline(t)

	result, err := service.Ranked(context.Background(), obstacle.ListFilter{})
	if err != nil {
		t.Fatalf("failed to rank empty set: %v", err)
	}

	if len(result.Items) != 0 {
		t.Errorf("expected no items, got %d", len(result.Items))
	}
	if result.Stats.AverageScore != 0 {
		t.Errorf("expected average 0, got %d", result.Stats.AverageScore)
	}
}

func TestService_Assess(t *testing.T) {
	service, repo, _ := newPipeline(t)

	seed(t, repo, &obstacle.Obstacle{
		ID:       "obs_1",
		Type:     obstacle.TypeVendorBlocking,
		Severity: obstacle.SeverityHigh,
		Upvotes:  8, Downvotes: 2,
		Status: lifecycle.StatusPending,
	})

	result, err := service.Assess(context.Background(), "obs_1")
	if err != nil {
		t.Fatalf("failed to assess: %v", err)
	}

	if result.Priority.Score != 53 {
		t.Errorf("expected score 53, got %d", result.Priority.Score)
	}
	if result.Priority.ImplementationCategory != "Quick Fix" {
		t.Errorf("expected Quick Fix, got %s", result.Priority.ImplementationCategory)
	}
	if result.Priority.Timeframe != "1-30 days" {
		t.Errorf("expected 1-30 days, got %s", result.Priority.Timeframe)
	}

	_, err = service.Assess(context.Background(), "obs_missing")
	if !errors.Is(err, obstacle.ErrObstacleNotFound) {
		t.Errorf("expected ErrObstacleNotFound, got %v", err)
	}
}

func TestService_Stats_IncludesAllCategories(t *testing.T) {
	service, repo, _ := newPipeline(t)

	seed(t, repo, &obstacle.Obstacle{
		ID:       "obs_1",
		Type:     obstacle.TypeOther,
		Severity: obstacle.SeverityLow,
		Status:   lifecycle.StatusPending,
	})

	stats, err := service.Stats(context.Background(), obstacle.ListFilter{})
	if err != nil {
		t.Fatalf("failed to compute stats: %v", err)
	}

	for _, c := range priority.AllCategories() {
		if _, ok := stats.ByCategory[string(c)]; !ok {
			t.Errorf("category %s missing from stats", c)
		}
	}
	if stats.ByCategory["LOW"] != 1 {
		t.Errorf("expected 1 LOW, got %d", stats.ByCategory["LOW"])
	}
}

func TestService_RefreshSnapshot(t *testing.T) {
	service, repo, snapshots := newPipeline(t)

	seed(t, repo,
		&obstacle.Obstacle{ID: "obs_top", Type: obstacle.TypeStairsNoRamp, Severity: obstacle.SeverityBlocking, Upvotes: 15, Status: lifecycle.StatusVerified},
		&obstacle.Obstacle{ID: "obs_low", Type: obstacle.TypeOther, Severity: obstacle.SeverityLow, Status: lifecycle.StatusPending},
	)

	snap, err := service.RefreshSnapshot(context.Background())
	if err != nil {
		t.Fatalf("failed to refresh snapshot: %v", err)
	}

	if snap.Stats.Total != 2 {
		t.Errorf("expected total 2, got %d", snap.Stats.Total)
	}
	if snap.TopID != "obs_top" {
		t.Errorf("expected top obstacle obs_top, got %s", snap.TopID)
	}
	if snap.TopScore != 100 {
		t.Errorf("expected top score 100, got %d", snap.TopScore)
	}
	if snapshots.Count() != 1 {
		t.Errorf("expected 1 stored snapshot, got %d", snapshots.Count())
	}

	latest, err := service.LatestSnapshot(context.Background())
	if err != nil {
		t.Fatalf("failed to load latest snapshot: %v", err)
	}
	if latest.ID != snap.ID {
		t.Errorf("expected latest snapshot %s, got %s", snap.ID, latest.ID)
	}
}

func TestService_LatestSnapshot_Empty(t *testing.T) {
	service, _, _ := newPipeline(t)

	_, err := service.LatestSnapshot(context.Background())
	if !errors.Is(err, priority.ErrNoSnapshots) {
		t.Errorf("expected ErrNoSnapshots, got %v", err)
	}
}
