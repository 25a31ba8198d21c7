package models

// Obstacle represents a reported accessibility barrier.
type Obstacle struct {
	ID          string    `json:"id"`
	Point       Point     `json:"point"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	ReporterID  string    `json:"reporterId"`
	ReportedAt  Timestamp `json:"reportedAt"`
	Upvotes     int       `json:"upvotes"`
	Downvotes   int       `json:"downvotes"`
	Status      string    `json:"status"`
	PhotoURL    *string   `json:"photoUrl,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// PagedObstacles is a paginated obstacle listing.
type PagedObstacles struct {
	Items []Obstacle        `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// ObstacleCreateRequest is the request body for reporting an obstacle.
type ObstacleCreateRequest struct {
	Point       Point   `json:"point"`
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	ReporterID  string  `json:"reporterId"`
	PhotoURL    *string `json:"photoUrl,omitempty"`
}

// VoteRequest is the request body for voting on an obstacle.
type VoteRequest struct {
	ReporterID string `json:"reporterId"`
	Up         bool   `json:"up"`
}

// PriorityBreakdown holds the four weighted subtotals behind a score.
type PriorityBreakdown struct {
	SeverityPoints  int `json:"severityPoints"`
	CommunityPoints int `json:"communityPoints"`
	CriticalPoints  int `json:"criticalPoints"`
	AdminPoints     int `json:"adminPoints"`
}

// Priority is the computed urgency assessment for an obstacle.
type Priority struct {
	Score                  int               `json:"score"`
	Category               string            `json:"category"`
	Recommendation         string            `json:"recommendation"`
	ImplementationCategory string            `json:"implementationCategory"`
	Timeframe              string            `json:"timeframe"`
	Breakdown              PriorityBreakdown `json:"breakdown"`
}

// RankedObstacle pairs an obstacle with its computed priority.
type RankedObstacle struct {
	Obstacle Obstacle `json:"obstacle"`
	Priority Priority `json:"priority"`
}

// RankedObstacles is the full ranked listing with aggregate statistics.
type RankedObstacles struct {
	Items []RankedObstacle `json:"items"`
	Stats ObstacleStats    `json:"stats"`
}

// ObstacleStats are the aggregate statistics over a ranked set.
type ObstacleStats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"byStatus"`
	ByCategory   map[string]int `json:"byCategory"`
	Urgent       int            `json:"urgent"`
	AverageScore int            `json:"averageScore"`
}

// StatusChangeRequest is the request body for an admin status transition.
type StatusChangeRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// StatusChangeEntry is one audit-trail record for an obstacle.
type StatusChangeEntry struct {
	ID         string    `json:"id"`
	ObstacleID string    `json:"obstacleId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    string    `json:"actorId"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt Timestamp `json:"recordedAt"`
}

// StatusHistory is the audit trail for one obstacle, oldest first.
type StatusHistory struct {
	ObstacleID string              `json:"obstacleId"`
	Items      []StatusChangeEntry `json:"items"`
}

// Enums lists the closed enumerations used by the API.
type Enums struct {
	Types                    []string `json:"types"`
	Severities               []string `json:"severities"`
	Statuses                 []string `json:"statuses"`
	Categories               []string `json:"categories"`
	ImplementationCategories []string `json:"implementationCategories"`
}
