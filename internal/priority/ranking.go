package priority

import (
	"math"
	"sort"

	"github.com/accesspath/accesspath/internal/lifecycle"
	"github.com/accesspath/accesspath/internal/obstacle"
)

// RankedObstacle pairs an obstacle with its computed priority.
type RankedObstacle struct {
	Obstacle *obstacle.Obstacle
	Priority Result
}

// Rank scores a batch of obstacles and orders it descending by score.
// The sort is stable: ties keep their input order, so ranking the same
// set twice yields an identical order. The input slice is not modified.
func Rank(obstacles []*obstacle.Obstacle) []RankedObstacle {
	ranked := make([]RankedObstacle, 0, len(obstacles))
	for _, o := range obstacles {
		ranked = append(ranked, RankedObstacle{
			Obstacle: o,
			Priority: Calculate(o),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority.Score > ranked[j].Priority.Score
	})

	return ranked
}

// Stats are the aggregate statistics over a ranked set.
type Stats struct {
	Total        int
	ByStatus     map[lifecycle.Status]int
	ByCategory   map[Category]int
	Urgent       int
	AverageScore int
}

// ComputeStats derives aggregate statistics from a ranked set.
// Urgent counts CRITICAL plus HIGH. The average is rounded to the nearest
// integer and is 0 for an empty set.
func ComputeStats(ranked []RankedObstacle) Stats {
	stats := Stats{
		Total:      len(ranked),
		ByStatus:   make(map[lifecycle.Status]int),
		ByCategory: make(map[Category]int),
	}

	sum := 0
	for _, r := range ranked {
		stats.ByStatus[r.Obstacle.Status]++
		stats.ByCategory[r.Priority.Category]++
		sum += r.Priority.Score

		if r.Priority.Category == CategoryCritical || r.Priority.Category == CategoryHigh {
			stats.Urgent++
		}
	}

	if stats.Total > 0 {
		stats.AverageScore = int(math.Round(float64(sum) / float64(stats.Total)))
	}

	return stats
}
