// Package handler provides HTTP handlers for the AccessPath API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/accesspath/accesspath/internal/api/models"
	"github.com/accesspath/accesspath/internal/api/response"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	dbPing    Pinger
}

// NewOpsHandler creates a new OpsHandler. dbPing may be nil when the
// service runs without a database (in-memory mode).
func NewOpsHandler(version, buildTime string, dbPing Pinger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		dbPing:    dbPing,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.dbPing(ctx); err != nil {
			health.Status = models.HealthStatusFail
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())

	dbStatus := models.HealthStatusOK
	if h.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.dbPing(ctx); err != nil {
			dbStatus = models.HealthStatusFail
		}
	}

	overall := models.HealthStatusOK
	if dbStatus != models.HealthStatusOK {
		overall = models.HealthStatusDegraded
	}

	status := models.SystemStatus{
		Status: overall,
		Time:   now,
		Subsystems: []models.SubsystemStatus{
			{Name: "postgres", Status: dbStatus},
		},
	}
	response.JSON(w, r, http.StatusOK, status)
}
