package obstacle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/accesspath/accesspath/internal/api/models"
	"github.com/accesspath/accesspath/internal/audit"
	"github.com/accesspath/accesspath/internal/lifecycle"
)

// Validation constants.
const (
	MaxDescriptionLength = 1000
	MaxNotesLength       = 500
)

// Service provides obstacle operations.
type Service struct {
	repo    Repository
	manager *lifecycle.Manager
	trail   audit.Trail
	logger  zerolog.Logger
}

// ServiceConfig holds configuration for the obstacle service.
type ServiceConfig struct {
	Repo    Repository
	Manager *lifecycle.Manager
	Trail   audit.Trail
	Logger  zerolog.Logger
}

// NewService creates a new obstacle service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:    cfg.Repo,
		manager: cfg.Manager,
		trail:   cfg.Trail,
		logger:  cfg.Logger,
	}
}

// List retrieves obstacles matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter, limit int, cursor string) (*models.PagedObstacles, error) {
	result, err := s.repo.List(ctx, ListOptions{
		Filter: filter,
		Limit:  limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, err
	}

	items := make([]models.Obstacle, 0, len(result.Items))
	for _, o := range result.Items {
		items = append(items, ToAPI(o))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedObstacles{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves an obstacle by ID.
func (s *Service) Get(ctx context.Context, obstacleID string) (*models.Obstacle, error) {
	o, err := s.repo.Get(ctx, obstacleID)
	if err != nil {
		return nil, err
	}

	result := ToAPI(o)
	return &result, nil
}

// Report files a new obstacle. Reports always enter review as pending;
// the reporter cannot choose a status.
func (s *Service) Report(ctx context.Context, input *models.ObstacleCreateRequest) (*models.Obstacle, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	o := &Obstacle{
		ID:          "obs_" + uuid.New().String()[:22],
		Point:       Point{Lat: input.Point.Lat, Lon: input.Point.Lon},
		Type:        Type(input.Type),
		Severity:    Severity(input.Severity),
		Description: input.Description,
		ReporterID:  input.ReporterID,
		ReportedAt:  now,
		Status:      lifecycle.StatusPending,
		PhotoURL:    input.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("obstacle_id", o.ID).
		Str("type", string(o.Type)).
		Str("severity", string(o.Severity)).
		Msg("obstacle reported")

	result := ToAPI(o)
	return &result, nil
}

// ChangeStatus performs an admin status transition. The transition is
// validated first; a disallowed edge returns *lifecycle.TransitionError
// with no store write and no audit record. The store update is the hard
// failure point. The audit record is best-effort: a recorder failure is
// logged and never blocks the admin action.
func (s *Service) ChangeStatus(ctx context.Context, obstacleID string, input *models.StatusChangeRequest, actorID string) (*models.Obstacle, error) {
	if fieldErrors := s.validateStatusInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	o, err := s.repo.Get(ctx, obstacleID)
	if err != nil {
		return nil, err
	}

	to := lifecycle.ParseStatus(input.Status)
	if !lifecycle.CanTransition(o.Status, to) {
		return nil, &lifecycle.TransitionError{From: o.Status, To: to}
	}

	if err := s.repo.UpdateStatus(ctx, obstacleID, to); err != nil {
		return nil, err
	}

	if _, err := s.manager.RecordTransition(ctx, obstacleID, o.Status, to, actorID, input.Notes); err != nil {
		s.logger.Error().Err(err).
			Str("obstacle_id", obstacleID).
			Str("from", string(o.Status)).
			Str("to", string(to)).
			Msg("failed to record status change")
	}

	s.logger.Info().
		Str("obstacle_id", obstacleID).
		Str("from", string(o.Status)).
		Str("to", string(to)).
		Str("actor_id", actorID).
		Msg("obstacle status changed")

	o.Status = to
	o.UpdatedAt = time.Now()
	result := ToAPI(o)
	return &result, nil
}

// History returns the status-change audit trail for an obstacle, oldest
// first. An obstacle with no recorded transitions yields an empty trail.
func (s *Service) History(ctx context.Context, obstacleID string) (*models.StatusHistory, error) {
	if _, err := s.repo.Get(ctx, obstacleID); err != nil {
		return nil, err
	}

	entries, err := s.trail.History(ctx, obstacleID)
	if err != nil && !errors.Is(err, audit.ErrNoHistory) {
		return nil, err
	}

	items := make([]models.StatusChangeEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.StatusChangeEntry{
			ID:         e.ID,
			ObstacleID: e.Change.ObstacleID,
			FromStatus: string(e.Change.From),
			ToStatus:   string(e.Change.To),
			ActorID:    e.Change.ActorID,
			Notes:      e.Change.Notes,
			RecordedAt: models.Timestamp(e.Change.RecordedAt),
		})
	}

	return &models.StatusHistory{
		ObstacleID: obstacleID,
		Items:      items,
	}, nil
}

// Vote records a community vote and returns the obstacle with its
// updated counters. A reporter votes at most once per obstacle.
func (s *Service) Vote(ctx context.Context, obstacleID string, input *models.VoteRequest) (*models.Obstacle, error) {
	if input.ReporterID == "" {
		return nil, &ValidationError{Errors: []models.FieldError{
			{Field: "reporterId", Message: "is required"},
		}}
	}

	if _, err := s.repo.Get(ctx, obstacleID); err != nil {
		return nil, err
	}

	vote := &Vote{
		ID:         "vot_" + uuid.New().String()[:22],
		ObstacleID: obstacleID,
		ReporterID: input.ReporterID,
		Up:         input.Up,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.AddVote(ctx, vote); err != nil {
		return nil, err
	}

	o, err := s.repo.Get(ctx, obstacleID)
	if err != nil {
		return nil, err
	}

	result := ToAPI(o)
	return &result, nil
}

// validateCreateInput validates the report obstacle input.
func (s *Service) validateCreateInput(input *models.ObstacleCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Point.Lat < -90 || input.Point.Lat > 90 {
		errs = append(errs, models.FieldError{Field: "point.lat", Message: "must be between -90 and 90"})
	}
	if input.Point.Lon < -180 || input.Point.Lon > 180 {
		errs = append(errs, models.FieldError{Field: "point.lon", Message: "must be between -180 and 180"})
	}

	if input.Type == "" {
		errs = append(errs, models.FieldError{Field: "type", Message: "is required"})
	} else if ParseType(input.Type) == TypeUnknown {
		errs = append(errs, models.FieldError{Field: "type", Message: "is not a recognized obstacle type"})
	}

	if input.Severity == "" {
		errs = append(errs, models.FieldError{Field: "severity", Message: "is required"})
	} else if ParseSeverity(input.Severity) == SeverityUnknown {
		errs = append(errs, models.FieldError{Field: "severity", Message: "is not a recognized severity"})
	}

	if input.Description == "" {
		errs = append(errs, models.FieldError{Field: "description", Message: "is required"})
	} else if len(input.Description) > MaxDescriptionLength {
		errs = append(errs, models.FieldError{Field: "description", Message: "must be at most 1000 characters"})
	}

	if input.ReporterID == "" {
		errs = append(errs, models.FieldError{Field: "reporterId", Message: "is required"})
	}

	return errs
}

// validateStatusInput validates a status-change request. Enum coercion
// is deliberately strict here: stored data may degrade to unknown, but
// an admin request must name a real status.
func (s *Service) validateStatusInput(input *models.StatusChangeRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Status == "" {
		errs = append(errs, models.FieldError{Field: "status", Message: "is required"})
	} else if lifecycle.ParseStatus(input.Status) == lifecycle.StatusUnknown {
		errs = append(errs, models.FieldError{Field: "status", Message: "is not a recognized status"})
	}

	if len(input.Notes) > MaxNotesLength {
		errs = append(errs, models.FieldError{Field: "notes", Message: "must be at most 500 characters"})
	}

	return errs
}

// ToAPI converts a domain obstacle to its API representation.
func ToAPI(o *Obstacle) models.Obstacle {
	return models.Obstacle{
		ID:          o.ID,
		Point:       models.Point{Lat: o.Point.Lat, Lon: o.Point.Lon},
		Type:        string(o.Type),
		Severity:    string(o.Severity),
		Description: o.Description,
		ReporterID:  o.ReporterID,
		ReportedAt:  models.Timestamp(o.ReportedAt),
		Upvotes:     o.Upvotes,
		Downvotes:   o.Downvotes,
		Status:      string(o.Status),
		PhotoURL:    o.PhotoURL,
		CreatedAt:   models.Timestamp(o.CreatedAt),
		UpdatedAt:   models.Timestamp(o.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
