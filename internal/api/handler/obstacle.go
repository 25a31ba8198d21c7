package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/accesspath/accesspath/internal/api/models"
	"github.com/accesspath/accesspath/internal/api/response"
	"github.com/accesspath/accesspath/internal/lifecycle"
	"github.com/accesspath/accesspath/internal/obstacle"
	"github.com/accesspath/accesspath/internal/priority"
)

// Listing limits.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ObstacleHandler handles obstacle endpoints.
type ObstacleHandler struct {
	obstacles *obstacle.Service
	priority  *priority.Service
}

// NewObstacleHandler creates a new ObstacleHandler.
func NewObstacleHandler(obstacles *obstacle.Service, prio *priority.Service) *ObstacleHandler {
	return &ObstacleHandler{
		obstacles: obstacles,
		priority:  prio,
	}
}

// List handles GET /v1/obstacles - paginated obstacle listing.
func (h *ObstacleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	filter := parseFilter(r)
	cursor := r.URL.Query().Get("cursor")

	page, err := h.obstacles.List(r.Context(), filter, limit, cursor)
	if err != nil {
		response.InternalError(w, r, "failed to list obstacles")
		return
	}

	response.JSON(w, r, http.StatusOK, page)
}

// Get handles GET /v1/obstacles/{obstacleId}.
func (h *ObstacleHandler) Get(w http.ResponseWriter, r *http.Request) {
	obstacleID := chi.URLParam(r, "obstacleId")

	o, err := h.obstacles.Get(r.Context(), obstacleID)
	if err != nil {
		if errors.Is(err, obstacle.ErrObstacleNotFound) {
			response.NotFound(w, r, "obstacle not found")
			return
		}
		response.InternalError(w, r, "failed to get obstacle")
		return
	}

	response.JSON(w, r, http.StatusOK, o)
}

// Create handles POST /v1/obstacles - file a new obstacle report.
func (h *ObstacleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ObstacleCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	o, err := h.obstacles.Report(r.Context(), &req)
	if err != nil {
		var validationErr *obstacle.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation error", validationErr.Errors)
			return
		}
		response.InternalError(w, r, "failed to report obstacle")
		return
	}

	response.Created(w, r, "/v1/obstacles/"+o.ID, o)
}

// Ranked handles GET /v1/obstacles/ranked - the priority-ordered
// listing with aggregate statistics.
func (h *ObstacleHandler) Ranked(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.priority.Ranked(r.Context(), parseFilter(r))
	if err != nil {
		response.InternalError(w, r, "failed to rank obstacles")
		return
	}

	response.JSON(w, r, http.StatusOK, ranked)
}

// Stats handles GET /v1/obstacles/stats - aggregate statistics only.
func (h *ObstacleHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.priority.Stats(r.Context(), parseFilter(r))
	if err != nil {
		response.InternalError(w, r, "failed to compute stats")
		return
	}

	response.JSON(w, r, http.StatusOK, stats)
}

// Priority handles GET /v1/obstacles/{obstacleId}/priority - a single
// obstacle with its priority assessment.
func (h *ObstacleHandler) Priority(w http.ResponseWriter, r *http.Request) {
	obstacleID := chi.URLParam(r, "obstacleId")

	assessed, err := h.priority.Assess(r.Context(), obstacleID)
	if err != nil {
		if errors.Is(err, obstacle.ErrObstacleNotFound) {
			response.NotFound(w, r, "obstacle not found")
			return
		}
		response.InternalError(w, r, "failed to assess obstacle")
		return
	}

	response.JSON(w, r, http.StatusOK, assessed)
}

// ChangeStatus handles PATCH /v1/obstacles/{obstacleId}/status - admin
// status transition.
func (h *ObstacleHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	obstacleID := chi.URLParam(r, "obstacleId")

	var req models.StatusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	o, err := h.obstacles.ChangeStatus(r.Context(), obstacleID, &req, GetAdminID(r.Context()))
	if err != nil {
		var validationErr *obstacle.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation error", validationErr.Errors)
			return
		}

		var transitionErr *lifecycle.TransitionError
		if errors.As(err, &transitionErr) {
			response.Conflict(w, r, transitionErr.Error())
			return
		}

		if errors.Is(err, obstacle.ErrObstacleNotFound) {
			response.NotFound(w, r, "obstacle not found")
			return
		}

		response.InternalError(w, r, "failed to change status")
		return
	}

	response.JSON(w, r, http.StatusOK, o)
}

// History handles GET /v1/obstacles/{obstacleId}/history - the
// status-change audit trail.
func (h *ObstacleHandler) History(w http.ResponseWriter, r *http.Request) {
	obstacleID := chi.URLParam(r, "obstacleId")

	history, err := h.obstacles.History(r.Context(), obstacleID)
	if err != nil {
		if errors.Is(err, obstacle.ErrObstacleNotFound) {
			response.NotFound(w, r, "obstacle not found")
			return
		}
		response.InternalError(w, r, "failed to load history")
		return
	}

	response.JSON(w, r, http.StatusOK, history)
}

// Vote handles POST /v1/obstacles/{obstacleId}/votes - community vote.
func (h *ObstacleHandler) Vote(w http.ResponseWriter, r *http.Request) {
	obstacleID := chi.URLParam(r, "obstacleId")

	var req models.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	o, err := h.obstacles.Vote(r.Context(), obstacleID, &req)
	if err != nil {
		var validationErr *obstacle.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation error", validationErr.Errors)
			return
		}

		if errors.Is(err, obstacle.ErrObstacleNotFound) {
			response.NotFound(w, r, "obstacle not found")
			return
		}
		if errors.Is(err, obstacle.ErrDuplicateVote) {
			response.Conflict(w, r, "reporter has already voted on this obstacle")
			return
		}

		response.InternalError(w, r, "failed to record vote")
		return
	}

	response.JSON(w, r, http.StatusOK, o)
}

// parseLimit reads and bounds the limit query parameter.
func parseLimit(r *http.Request) int {
	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit
}

// parseFilter reads the status, type, and severity query parameters.
// Values are passed through the enum parsers so an unrecognized filter
// matches nothing rather than everything.
func parseFilter(r *http.Request) obstacle.ListFilter {
	var filter obstacle.ListFilter

	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		filter.Status = lifecycle.ParseStatus(raw)
	}
	if raw := q.Get("type"); raw != "" {
		filter.Type = obstacle.ParseType(raw)
	}
	if raw := q.Get("severity"); raw != "" {
		filter.Severity = obstacle.ParseSeverity(raw)
	}

	return filter
}
