package handler

import (
	"net/http"

	"github.com/accesspath/accesspath/internal/api/models"
	"github.com/accesspath/accesspath/internal/api/response"
	"github.com/accesspath/accesspath/internal/lifecycle"
	"github.com/accesspath/accesspath/internal/obstacle"
	"github.com/accesspath/accesspath/internal/priority"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// GetEnums handles GET /v1/metadata/enums - the closed enumerations
// used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums := models.Enums{}

	for _, t := range obstacle.AllTypes() {
		enums.Types = append(enums.Types, string(t))
	}
	for _, s := range obstacle.AllSeverities() {
		enums.Severities = append(enums.Severities, string(s))
	}
	for _, s := range lifecycle.AllStatuses() {
		enums.Statuses = append(enums.Statuses, string(s))
	}
	for _, c := range priority.AllCategories() {
		enums.Categories = append(enums.Categories, string(c))
	}
	enums.ImplementationCategories = []string{
		string(priority.QuickFix),
		string(priority.MediumProject),
		string(priority.MajorInfrastructure),
	}

	response.JSON(w, r, http.StatusOK, enums)
}

// GetTransitions handles GET /v1/metadata/transitions - the allowed
// status transition table.
func (h *MetadataHandler) GetTransitions(w http.ResponseWriter, r *http.Request) {
	transitions := make(map[string][]string, len(lifecycle.AllStatuses()))
	for _, from := range lifecycle.AllStatuses() {
		next := make([]string, 0)
		for _, to := range lifecycle.AllowedFrom(from) {
			next = append(next, string(to))
		}
		transitions[string(from)] = next
	}

	response.JSON(w, r, http.StatusOK, transitions)
}
