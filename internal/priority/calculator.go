// Package priority implements the deterministic scoring that ranks
// reported obstacles for government action.
package priority

import (
	"github.com/accesspath/accesspath/internal/lifecycle"
	"github.com/accesspath/accesspath/internal/obstacle"
)

// Category is the coarse urgency bucket derived from the score.
type Category string

const (
	CategoryCritical Category = "CRITICAL"
	CategoryHigh     Category = "HIGH"
	CategoryMedium   Category = "MEDIUM"
	CategoryLow      Category = "LOW"
)

// AllCategories returns the categories from most to least urgent.
func AllCategories() []Category {
	return []Category{CategoryCritical, CategoryHigh, CategoryMedium, CategoryLow}
}

// ImplementationCategory is the remediation effort bucket for an
// obstacle type.
type ImplementationCategory string

const (
	QuickFix            ImplementationCategory = "Quick Fix"
	MediumProject       ImplementationCategory = "Medium Project"
	MajorInfrastructure ImplementationCategory = "Major Infrastructure"
)

// Score component maxima. The four weights sum to 100 before clamping.
const (
	MaxSeverityPoints  = 40
	MaxCommunityPoints = 30
	MaxCriticalPoints  = 20
	MaxAdminPoints     = 10

	// communityPointsPerVote converts net support to community points.
	communityPointsPerVote = 3
)

// severityPoints maps severity to its score contribution.
// Unrecognized severities contribute zero rather than failing: triage is
// never blocked by bad upstream data.
var severityPoints = map[obstacle.Severity]int{
	obstacle.SeverityBlocking: 40,
	obstacle.SeverityHigh:     30,
	obstacle.SeverityMedium:   20,
	obstacle.SeverityLow:      10,
}

// criticalityPoints is a fixed bonus for types that are high-impact
// regardless of reported severity.
var criticalityPoints = map[obstacle.Type]int{
	obstacle.TypeNoSidewalk:   20,
	obstacle.TypeStairsNoRamp: 20,
	obstacle.TypeConstruction: 15,
	obstacle.TypeFlooding:     15,
}

// adminPoints maps the review status to its score contribution.
// A verified report outranks an untriaged one; resolved and rejected
// reports stop accruing urgency from their status.
var adminPoints = map[lifecycle.Status]int{
	lifecycle.StatusVerified:    10,
	lifecycle.StatusPending:     5,
	lifecycle.StatusResolved:    0,
	lifecycle.StatusFalseReport: 0,
}

// notYetTriagedPoints is the admin contribution for unknown statuses.
const notYetTriagedPoints = 5

// Breakdown holds the four weighted subtotals that sum, pre-clamp, to the
// unclamped score. Kept on every result for auditability.
type Breakdown struct {
	SeverityPoints  int `json:"severityPoints"`
	CommunityPoints int `json:"communityPoints"`
	CriticalPoints  int `json:"criticalPoints"`
	AdminPoints     int `json:"adminPoints"`
}

// Sum returns the unclamped score.
func (b Breakdown) Sum() int {
	return b.SeverityPoints + b.CommunityPoints + b.CriticalPoints + b.AdminPoints
}

// Result is the derived priority assessment for one obstacle.
// It is recomputed on demand and never persisted as source of truth.
type Result struct {
	Score                  int                    `json:"score"`
	Category               Category               `json:"category"`
	Recommendation         string                 `json:"recommendation"`
	ImplementationCategory ImplementationCategory `json:"implementationCategory"`
	Timeframe              string                 `json:"timeframe"`
	Breakdown              Breakdown              `json:"breakdown"`
}

// Calculate scores an obstacle. It is pure, total, and deterministic:
// any well-formed Obstacle produces a result, with unrecognized enum
// values degrading to zero-point contributions.
func Calculate(o *obstacle.Obstacle) Result {
	breakdown := Breakdown{
		SeverityPoints:  severityPoints[o.Severity],
		CommunityPoints: communityPoints(o.NetSupport()),
		CriticalPoints:  criticalityPoints[o.Type],
		AdminPoints:     statusPoints(o.Status),
	}

	score := clamp(breakdown.Sum(), 0, 100)

	return Result{
		Score:                  score,
		Category:               CategoryForScore(score),
		Recommendation:         RecommendationFor(o.Type),
		ImplementationCategory: ImplementationCategoryFor(o.Type),
		Timeframe:              TimeframeFor(ImplementationCategoryFor(o.Type)),
		Breakdown:              breakdown,
	}
}

// communityPoints converts net support into points. Negative net support
// contributes zero, not a penalty: the score never drops below what
// severity and criticality alone justify.
func communityPoints(netSupport int) int {
	return clamp(netSupport*communityPointsPerVote, 0, MaxCommunityPoints)
}

// statusPoints returns the admin-state contribution. Unknown statuses
// are treated as not-yet-triaged.
func statusPoints(status lifecycle.Status) int {
	points, ok := adminPoints[status]
	if !ok {
		return notYetTriagedPoints
	}
	return points
}

// CategoryForScore maps a score to its urgency category.
// The buckets are non-overlapping with inclusive lower bounds.
func CategoryForScore(score int) Category {
	switch {
	case score >= 80:
		return CategoryCritical
	case score >= 60:
		return CategoryHigh
	case score >= 40:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// quickFixTypes are cleared by enforcement or simple removal.
var quickFixTypes = map[obstacle.Type]bool{
	obstacle.TypeVendorBlocking: true,
	obstacle.TypeParkedVehicles: true,
}

// majorInfrastructureTypes require engineering works.
var majorInfrastructureTypes = map[obstacle.Type]bool{
	obstacle.TypeNoSidewalk:   true,
	obstacle.TypeStairsNoRamp: true,
	obstacle.TypeConstruction: true,
	obstacle.TypeFlooding:     true,
}

// ImplementationCategoryFor maps an obstacle type to its remediation
// effort bucket. The mapping is by type only, never by score: two
// obstacles of the same type always get the same guidance.
func ImplementationCategoryFor(t obstacle.Type) ImplementationCategory {
	switch {
	case quickFixTypes[t]:
		return QuickFix
	case majorInfrastructureTypes[t]:
		return MajorInfrastructure
	default:
		return MediumProject
	}
}

// TimeframeFor returns the expected delivery window for a bucket.
func TimeframeFor(c ImplementationCategory) string {
	switch c {
	case QuickFix:
		return "1-30 days"
	case MajorInfrastructure:
		return "6+ months"
	default:
		return "1-6 months"
	}
}

// recommendations is the remediation guidance per obstacle type.
var recommendations = map[obstacle.Type]string{
	obstacle.TypeStairsNoRamp:   "Install a wheelchair ramp meeting the 1:12 slope standard, or provide a signed accessible alternate route.",
	obstacle.TypeVendorBlocking: "Coordinate with the local enforcement office to relocate vendors and keep the pedestrian clearway open.",
	obstacle.TypeFlooding:       "Assess and rehabilitate street drainage; install raised crossings where ponding is recurrent.",
	obstacle.TypeNoSidewalk:     "Program sidewalk construction with a minimum 1.2m clear width into the district infrastructure plan.",
	obstacle.TypeConstruction:   "Require the contractor to provide a protected, barrier-free temporary pedestrian route for the duration of works.",
	obstacle.TypeNarrowPassage:  "Widen the clear path to at least 1.2m by relocating fixtures or adjusting property frontage.",
	obstacle.TypeBrokenPavement: "Schedule pavement repair and re-leveling; patch trip hazards as an interim measure.",
	obstacle.TypeParkedVehicles: "Increase no-parking enforcement and install bollards where illegal parking is habitual.",
	obstacle.TypeElectricalPost: "Coordinate with the utility to relocate the post or re-route the accessible path around it.",
	obstacle.TypeTreeRoots:      "Engage the parks office for root management and reconstruct the lifted pavement section.",
	obstacle.TypeSteepSlope:     "Regrade the path or add a switchback ramp with rest landings and handrails.",
	obstacle.TypeOther:          "Dispatch a field assessment to determine the appropriate remediation.",
}

// RecommendationFor returns remediation guidance for an obstacle type.
// Unrecognized types get the generic field-assessment guidance.
func RecommendationFor(t obstacle.Type) string {
	if rec, ok := recommendations[t]; ok {
		return rec
	}
	return recommendations[obstacle.TypeOther]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
