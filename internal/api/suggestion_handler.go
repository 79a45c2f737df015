package api

import (
	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/policy"
	"alcyxob/run-tracker/internal/service"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// SuggestionHandler holds the suggestion service dependency.
type SuggestionHandler struct {
	suggestionService service.SuggestionService
	limits            policy.Limits
	log               *logger.Logger
}

// NewSuggestionHandler creates a new SuggestionHandler.
func NewSuggestionHandler(suggestionService service.SuggestionService, limits policy.Limits, log *logger.Logger) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: suggestionService, limits: limits.Normalize(), log: log}
}

// --- DTOs ---

type CreateSuggestionRequest struct {
	TrainingTypeCode string         `json:"trainingTypeCode" binding:"required"`
	PlannedDate      string         `json:"plannedDate" binding:"required"` // YYYY-MM-DD
	Context          map[string]any `json:"context"`
}

type AcceptSuggestionRequest struct {
	Position *int `json:"position" binding:"required,min=1"`
}

type RegenerateSuggestionRequest struct {
	Reason         string `json:"reason" binding:"omitempty,max=200"`
	AdjustmentHint string `json:"adjustmentHint" binding:"omitempty,max=500"`
}

type SuggestionResponse struct {
	ID               string         `json:"id"`
	TrainingTypeCode string         `json:"trainingTypeCode"`
	Status           string         `json:"status"`
	PlannedDate      string         `json:"plannedDate"`
	Steps            []domain.Step  `json:"steps"`
	Context          map[string]any `json:"context,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	WorkoutID        *string        `json:"workoutId,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	ExpiresAt        time.Time      `json:"expiresAt"`
	Expired          *bool          `json:"expired,omitempty"`
}

type SuggestionEventResponse struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

func (h *SuggestionHandler) mapSuggestion(s *domain.Suggestion) SuggestionResponse {
	return SuggestionResponse{
		ID:               s.ID,
		TrainingTypeCode: s.TrainingTypeCode,
		Status:           string(s.Status),
		PlannedDate:      s.PlannedDate.UTC().Format(dateLayout),
		Steps:            s.Steps,
		Context:          s.Context,
		Metadata:         s.Metadata,
		WorkoutID:        s.WorkoutID,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		ExpiresAt:        h.limits.ExpiresAt(s.CreatedAt),
	}
}

// --- Handler Methods ---

// CreateSuggestion handles POST /suggestions.
func (h *SuggestionHandler) CreateSuggestion(c *gin.Context) {
	var req CreateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	plannedDate, err := time.Parse(dateLayout, req.PlannedDate)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "plannedDate must be YYYY-MM-DD")
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	suggestion, err := h.suggestionService.CreateSuggestion(c.Request.Context(), userID, service.CreateSuggestionInput{
		TrainingTypeCode: req.TrainingTypeCode,
		PlannedDate:      plannedDate,
		Context:          req.Context,
	})
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, h.mapSuggestion(suggestion))
}

// GetSuggestion handles GET /suggestions/:id.
func (h *SuggestionHandler) GetSuggestion(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	view, err := h.suggestionService.GetSuggestion(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	resp := h.mapSuggestion(view.Suggestion)
	resp.ExpiresAt = view.ExpiresAt
	resp.Expired = &view.Expired
	c.JSON(http.StatusOK, resp)
}

// GetSuggestionEvents handles GET /suggestions/:id/events.
func (h *SuggestionHandler) GetSuggestionEvents(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	events, err := h.suggestionService.GetSuggestionEvents(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	resp := make([]SuggestionEventResponse, len(events))
	for i, e := range events {
		resp[i] = SuggestionEventResponse{ID: e.ID, Kind: string(e.Kind), Metadata: e.Metadata, OccurredAt: e.OccurredAt}
	}
	c.JSON(http.StatusOK, resp)
}

// GetGenerationURL handles GET /suggestions/:id/generation.
func (h *SuggestionHandler) GetGenerationURL(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	url, err := h.suggestionService.GetGenerationURL(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// AcceptSuggestion handles POST /suggestions/:id/accept and returns the new workout.
func (h *SuggestionHandler) AcceptSuggestion(c *gin.Context) {
	var req AcceptSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	workout, err := h.suggestionService.AcceptSuggestion(c.Request.Context(), userID, c.Param("id"), *req.Position)
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// RejectSuggestion handles POST /suggestions/:id/reject.
func (h *SuggestionHandler) RejectSuggestion(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	suggestion, err := h.suggestionService.RejectSuggestion(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.mapSuggestion(suggestion))
}

// RegenerateSuggestion handles POST /suggestions/:id/regenerate. The body is optional.
func (h *SuggestionHandler) RegenerateSuggestion(c *gin.Context) {
	var req RegenerateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	suggestion, err := h.suggestionService.RegenerateSuggestion(c.Request.Context(), userID, c.Param("id"), service.RegenerateInput{
		Reason:         req.Reason,
		AdjustmentHint: req.AdjustmentHint,
	})
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, h.mapSuggestion(suggestion))
}

func (h *SuggestionHandler) userID(c *gin.Context) (string, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return "", false
	}
	return userID, true
}
