// Package worker provides background job processing for AccessPath.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the ranking refresh job.
type RefreshConfig struct {
	// Concurrency is the number of concurrent sweep workers.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for a single refresh run.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshSnapshot enables recomputing the ranking snapshot.
	// Default: true
	RefreshSnapshot bool

	// SweepStale enables the stale pending-report sweep.
	// Default: true
	SweepStale bool

	// StalePendingAfter is how long a report may sit in pending
	// before the sweep flags it for triage.
	// Default: 14 days
	StalePendingAfter time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency:       3,
		Timeout:           30 * time.Second,
		RefreshSnapshot:   true,
		SweepStale:        true,
		StalePendingAfter: 14 * 24 * time.Hour,
	}
}
