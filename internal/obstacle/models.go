// Package obstacle provides reported-obstacle management services.
package obstacle

import (
	"errors"
	"time"

	"github.com/accesspath/accesspath/internal/lifecycle"
)

// Repository errors.
var (
	ErrObstacleNotFound = errors.New("obstacle not found")
	ErrDuplicateVote    = errors.New("reporter has already voted on this obstacle")
)

// Type is the category of a reported accessibility barrier.
type Type string

const (
	TypeStairsNoRamp   Type = "stairs_no_ramp"
	TypeVendorBlocking Type = "vendor_blocking"
	TypeFlooding       Type = "flooding"
	TypeNoSidewalk     Type = "no_sidewalk"
	TypeConstruction   Type = "construction"
	TypeNarrowPassage  Type = "narrow_passage"
	TypeBrokenPavement Type = "broken_pavement"
	TypeParkedVehicles Type = "parked_vehicles"
	TypeElectricalPost Type = "electrical_post"
	TypeTreeRoots      Type = "tree_roots"
	TypeSteepSlope     Type = "steep_slope"
	TypeOther          Type = "other"

	// TypeUnknown is the fallback for unrecognized type strings.
	// Scoring treats it as contributing no criticality points.
	TypeUnknown Type = "unknown"
)

// AllTypes returns the closed set of obstacle types.
func AllTypes() []Type {
	return []Type{
		TypeStairsNoRamp,
		TypeVendorBlocking,
		TypeFlooding,
		TypeNoSidewalk,
		TypeConstruction,
		TypeNarrowPassage,
		TypeBrokenPavement,
		TypeParkedVehicles,
		TypeElectricalPost,
		TypeTreeRoots,
		TypeSteepSlope,
		TypeOther,
	}
}

// ParseType maps a raw type string to a Type.
// Unrecognized values map to TypeUnknown rather than failing.
func ParseType(s string) Type {
	for _, t := range AllTypes() {
		if Type(s) == t {
			return t
		}
	}
	return TypeUnknown
}

// Severity is the reporter-assessed impact of an obstacle.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"

	// SeverityUnknown is the fallback for unrecognized severity strings.
	// It contributes zero severity points.
	SeverityUnknown Severity = "unknown"
)

// AllSeverities returns the closed set of severities, highest first.
func AllSeverities() []Severity {
	return []Severity{SeverityBlocking, SeverityHigh, SeverityMedium, SeverityLow}
}

// ParseSeverity maps a raw severity string to a Severity.
// Unrecognized values map to SeverityUnknown rather than failing.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityBlocking, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(s)
	default:
		return SeverityUnknown
	}
}

// Point represents a geographic point.
type Point struct {
	Lat float64
	Lon float64
}

// Obstacle represents a community-reported accessibility barrier.
//
// Upvotes and Downvotes are monotonically non-decreasing counts owned by
// the voting collaborator; the priority engine treats them as read-only
// inputs.
type Obstacle struct {
	ID          string
	Point       Point
	Type        Type
	Severity    Severity
	Description string
	ReporterID  string
	ReportedAt  time.Time
	Upvotes     int
	Downvotes   int
	Status      lifecycle.Status
	PhotoURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NetSupport is the community validation signal: upvotes minus downvotes.
func (o *Obstacle) NetSupport() int {
	return o.Upvotes - o.Downvotes
}

// Vote represents a single reporter's vote on an obstacle.
// A reporter may vote at most once per obstacle.
type Vote struct {
	ID         string
	ObstacleID string
	ReporterID string
	Up         bool
	CreatedAt  time.Time
}
