package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propshield/climarisk/internal/application/assessment"
	"github.com/propshield/climarisk/internal/application/ingest"
	"github.com/propshield/climarisk/internal/domain/risk"
	"github.com/propshield/climarisk/pkg/errors"
)

// AssessmentHandler exposes the aggregation engine over HTTP.
type AssessmentHandler struct {
	service     assessment.Service
	coordinator *ingest.Coordinator
}

// NewAssessmentHandler builds the handler.  coordinator may be nil; then
// every request must carry its own source payloads.
func NewAssessmentHandler(service assessment.Service, coordinator *ingest.Coordinator) *AssessmentHandler {
	return &AssessmentHandler{service: service, coordinator: coordinator}
}

// createAssessmentRequest is the POST body.  Sources may be omitted when a
// provider coordinator is configured; the handler then fetches live data.
type createAssessmentRequest struct {
	PropertyID string                                            `json:"property_id" binding:"required"`
	Sources    map[string]risk.RawSourcePayload                  `json:"sources,omitempty"`
	Weather    map[risk.HazardType]risk.WeatherAdjustmentFactors `json:"weather,omitempty"`
	AsOf       time.Time                                         `json:"as_of,omitempty"`
}

// Create runs one aggregation.
// POST /api/v1/assessments
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req createAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewValidation("invalid request body").WithCause(err))
		return
	}

	sources := req.Sources
	if len(sources) == 0 {
		if h.coordinator == nil {
			respondError(c, errors.New(errors.ErrCodeNoSourceData,
				"no source payloads supplied and no providers configured"))
			return
		}
		fetched, err := h.coordinator.FetchAll(c.Request.Context(), req.PropertyID)
		if err != nil {
			respondError(c, err)
			return
		}
		sources = fetched
	}

	result, err := h.service.Aggregate(c.Request.Context(), &assessment.AggregateRequest{
		PropertyID: req.PropertyID,
		Sources:    sources,
		Weather:    req.Weather,
		AsOf:       req.AsOf,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, result)
}

// Get returns the latest assessment for a property.
// GET /api/v1/assessments/:propertyId
func (h *AssessmentHandler) Get(c *gin.Context) {
	propertyID := c.Param("propertyId")
	result, err := h.service.GetAssessment(c.Request.Context(), propertyID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// History returns persisted assessments for a property, newest first.
// GET /api/v1/assessments/:propertyId/history
func (h *AssessmentHandler) History(c *gin.Context) {
	propertyID := c.Param("propertyId")
	limit, offset := parseLimitOffset(c)
	history, err := h.service.History(c.Request.Context(), propertyID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, history)
}

// Stats returns the running aggregation statistics.
// GET /api/v1/stats
func (h *AssessmentHandler) Stats(c *gin.Context) {
	respondOK(c, http.StatusOK, h.service.Stats())
}
