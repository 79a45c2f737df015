package api

import (
	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
	log            *logger.Logger
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService, log *logger.Logger) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, log: log}
}

// --- DTOs ---

type CompleteWorkoutRequest struct {
	Distance     int        `json:"distance" binding:"required,gt=0"`     // Meters
	Duration     int        `json:"duration" binding:"required,gt=0"`     // Seconds
	AvgHeartRate int        `json:"avgHeartRate" binding:"required,gt=0"` // BPM
	CompletedAt  *time.Time `json:"completedAt"`                          // Defaults to now
	Rating       *string    `json:"rating" binding:"omitempty,oneof=too_easy just_right too_hard"`
}

type RateWorkoutRequest struct {
	Rating string `json:"rating" binding:"required,oneof=too_easy just_right too_hard"`
}

type WorkoutResponse struct {
	ID               string     `json:"id"`
	TrainingTypeCode string     `json:"trainingTypeCode"`
	PlannedDate      string     `json:"plannedDate"`
	Position         int        `json:"position"`
	PlannedDistance  *int       `json:"plannedDistance,omitempty"`
	PlannedDuration  *int       `json:"plannedDuration,omitempty"`
	Status           string     `json:"status"`
	Origin           string     `json:"origin"`
	Distance         *int       `json:"distance,omitempty"`
	Duration         *int       `json:"duration,omitempty"`
	AvgHeartRate     *int       `json:"avgHeartRate,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	Rating           *string    `json:"rating,omitempty"`
	SuggestionID     *string    `json:"suggestionId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// MapWorkoutToResponse converts a domain.Workout to WorkoutResponse DTO.
func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	resp := WorkoutResponse{
		ID:               w.ID,
		TrainingTypeCode: w.TrainingTypeCode,
		PlannedDate:      w.PlannedDate.UTC().Format(dateLayout),
		Position:         w.Position,
		PlannedDistance:  w.PlannedDistance,
		PlannedDuration:  w.PlannedDuration,
		Status:           string(w.Status),
		Origin:           string(w.Origin),
		Distance:         w.Distance,
		Duration:         w.Duration,
		AvgHeartRate:     w.AvgHeartRate,
		CompletedAt:      w.CompletedAt,
		SuggestionID:     w.SuggestionID,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
	if w.Rating != nil {
		r := string(*w.Rating)
		resp.Rating = &r
	}
	return resp
}

// --- Handler Methods ---

// GetWorkout handles GET /workouts/:id.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.GetWorkout(c.Request.Context(), userID, c.Param("id"))
	h.respond(c, workout, err)
}

// CompleteWorkout handles POST /workouts/:id/complete.
func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	in := service.CompleteWorkoutInput{
		Distance:     req.Distance,
		Duration:     req.Duration,
		AvgHeartRate: req.AvgHeartRate,
		CompletedAt:  time.Now().UTC(),
	}
	if req.CompletedAt != nil {
		in.CompletedAt = *req.CompletedAt
	}
	if req.Rating != nil {
		rating := domain.Rating(*req.Rating)
		in.Rating = &rating
	}
	workout, err := h.workoutService.CompleteWorkout(c.Request.Context(), userID, c.Param("id"), in)
	h.respond(c, workout, err)
}

// SkipWorkout handles POST /workouts/:id/skip.
func (h *WorkoutHandler) SkipWorkout(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.SkipWorkout(c.Request.Context(), userID, c.Param("id"))
	h.respond(c, workout, err)
}

// CancelWorkout handles POST /workouts/:id/cancel.
func (h *WorkoutHandler) CancelWorkout(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.CancelWorkout(c.Request.Context(), userID, c.Param("id"))
	h.respond(c, workout, err)
}

// RateWorkout handles POST /workouts/:id/rate.
func (h *WorkoutHandler) RateWorkout(c *gin.Context) {
	var req RateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.RateWorkout(c.Request.Context(), userID, c.Param("id"), domain.Rating(req.Rating))
	h.respond(c, workout, err)
}

func (h *WorkoutHandler) respond(c *gin.Context, workout *domain.Workout, err error) {
	if err != nil {
		handleServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

func (h *WorkoutHandler) userID(c *gin.Context) (string, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return "", false
	}
	return userID, true
}
