package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/accesspath/accesspath/internal/lifecycle"
	"github.com/accesspath/accesspath/internal/obstacle"
	"github.com/accesspath/accesspath/internal/priority"
)

// RefreshJob recomputes the ranking snapshot and sweeps stale
// pending reports.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	priorityService *priority.Service
	obstacleRepo    obstacle.Repository

	// Metrics
	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns         int64
	SuccessfulRuns    int64
	FailedRuns        int64
	SnapshotRefreshes int64
	StaleFlagged      int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config          RefreshConfig
	Logger          zerolog.Logger
	PriorityService *priority.Service
	ObstacleRepo    obstacle.Repository
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config.Concurrency == 0 {
		config = DefaultRefreshConfig()
	}

	return &RefreshJob{
		config:          config,
		logger:          cfg.Logger,
		priorityService: cfg.PriorityService,
		obstacleRepo:    cfg.ObstacleRepo,
		metrics:         &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	SnapshotID string
	TopScore   int
	Scanned    int
	Stale      []StaleReport
	Errors     []RefreshError
}

// StaleReport identifies a pending report that has sat untriaged
// past the configured threshold.
type StaleReport struct {
	ObstacleID string
	Age        time.Duration
}

// RefreshError represents an error during a refresh run.
type RefreshError struct {
	Step  string
	Error string
}

// Run executes one refresh pass.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	j.logger.Info().
		Int("concurrency", j.config.Concurrency).
		Msg("starting ranking refresh job")

	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.RefreshSnapshot && j.priorityService != nil {
		if err := j.refreshSnapshot(runCtx, result); err != nil {
			result.Errors = append(result.Errors, RefreshError{
				Step:  "snapshot",
				Error: err.Error(),
			})
		}
	}

	if j.config.SweepStale && j.obstacleRepo != nil {
		if err := j.sweepStale(runCtx, result); err != nil {
			result.Errors = append(result.Errors, RefreshError{
				Step:  "stale_sweep",
				Error: err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Str("snapshot_id", result.SnapshotID).
		Int("scanned", result.Scanned).
		Int("stale", len(result.Stale)).
		Int("errors", len(result.Errors)).
		Msg("ranking refresh job completed")

	return result
}

func (j *RefreshJob) refreshSnapshot(ctx context.Context, result *RefreshResult) error {
	snap, err := j.priorityService.RefreshSnapshot(ctx)
	if err != nil {
		return err
	}

	result.SnapshotID = snap.ID
	result.TopScore = snap.TopScore
	return nil
}

// sweepStale scans all obstacles and flags pending reports older
// than the configured threshold. The scan fans out across workers.
func (j *RefreshJob) sweepStale(ctx context.Context, result *RefreshResult) error {
	obstacles, err := j.obstacleRepo.ListAll(ctx, obstacle.ListFilter{})
	if err != nil {
		return err
	}
	result.Scanned = len(obstacles)

	obstaclesChan := make(chan *obstacle.Obstacle, len(obstacles))
	staleChan := make(chan StaleReport, len(obstacles))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.sweepWorker(ctx, obstaclesChan, staleChan)
		}()
	}

	for _, o := range obstacles {
		obstaclesChan <- o
	}
	close(obstaclesChan)

	go func() {
		wg.Wait()
		close(staleChan)
	}()

	for stale := range staleChan {
		result.Stale = append(result.Stale, stale)
		j.logger.Warn().
			Str("obstacle_id", stale.ObstacleID).
			Dur("age", stale.Age).
			Msg("pending report past triage threshold")
	}

	return nil
}

func (j *RefreshJob) sweepWorker(ctx context.Context, obstacles <-chan *obstacle.Obstacle, stale chan<- StaleReport) {
	cutoff := time.Now().Add(-j.config.StalePendingAfter)

	for o := range obstacles {
		select {
		case <-ctx.Done():
			return
		default:
			if o.Status == lifecycle.StatusPending && o.ReportedAt.Before(cutoff) {
				stale <- StaleReport{
					ObstacleID: o.ID,
					Age:        time.Since(o.ReportedAt),
				}
			}
		}
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	if len(result.Errors) == 0 {
		j.metrics.SuccessfulRuns++
	} else {
		j.metrics.FailedRuns++
	}
	if result.SnapshotID != "" {
		j.metrics.SnapshotRefreshes++
	}
	j.metrics.StaleFlagged += int64(len(result.Stale))
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:         j.metrics.TotalRuns,
		SuccessfulRuns:    j.metrics.SuccessfulRuns,
		FailedRuns:        j.metrics.FailedRuns,
		SnapshotRefreshes: j.metrics.SnapshotRefreshes,
		StaleFlagged:      j.metrics.StaleFlagged,
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
		TotalDuration:     j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":         m.TotalRuns,
		"successful_runs":    m.SuccessfulRuns,
		"failed_runs":        m.FailedRuns,
		"snapshot_refreshes": m.SnapshotRefreshes,
		"stale_flagged":      m.StaleFlagged,
		"last_run_at":        m.LastRunAt,
		"last_run_duration":  m.LastRunDuration.String(),
		"total_duration":     m.TotalDuration.String(),
	}
}
