package api

import (
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/policy"
	"alcyxob/run-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	suggestionService service.SuggestionService,
	workoutService service.WorkoutService,
	limits policy.Limits,
	log *logger.Logger,
) {
	suggestionHandler := NewSuggestionHandler(suggestionService, limits, log)
	workoutHandler := NewWorkoutHandler(workoutService, log)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Suggestion Routes ---
		suggestionGroup := protected.Group("/suggestions")
		{
			suggestionGroup.POST("", suggestionHandler.CreateSuggestion)
			suggestionGroup.GET("/:id", suggestionHandler.GetSuggestion)
			suggestionGroup.GET("/:id/events", suggestionHandler.GetSuggestionEvents)
			suggestionGroup.GET("/:id/generation", suggestionHandler.GetGenerationURL)
			suggestionGroup.POST("/:id/accept", suggestionHandler.AcceptSuggestion)
			suggestionGroup.POST("/:id/reject", suggestionHandler.RejectSuggestion)
			suggestionGroup.POST("/:id/regenerate", suggestionHandler.RegenerateSuggestion)
		}

		// --- Workout Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
			workoutGroup.POST("/:id/complete", workoutHandler.CompleteWorkout)
			workoutGroup.POST("/:id/skip", workoutHandler.SkipWorkout)
			workoutGroup.POST("/:id/cancel", workoutHandler.CancelWorkout)
			workoutGroup.POST("/:id/rate", workoutHandler.RateWorkout)
		}
	}
}
