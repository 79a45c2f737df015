package api

import (
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/service"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// errorMapping ties a service failure kind to its HTTP status and stable code.
type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrQuotaExceeded, http.StatusTooManyRequests, "quota_exceeded"},
	{service.ErrPositionConflict, http.StatusConflict, "position_conflict"},
	{service.ErrAlreadyLinked, http.StatusConflict, "already_linked"},
	{service.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{service.ErrAlreadyCompleted, http.StatusConflict, "already_completed"},
	{service.ErrAlreadySkipped, http.StatusConflict, "already_skipped"},
	{service.ErrAlreadyCanceled, http.StatusConflict, "already_canceled"},
	{service.ErrNotCompleted, http.StatusConflict, "not_completed"},
	{service.ErrExpired, http.StatusGone, "expired"},
	{service.ErrUnknownTrainingType, http.StatusUnprocessableEntity, "unknown_training_type"},
	{service.ErrIncompleteGeneration, http.StatusBadGateway, "incomplete_generation"},
	{service.ErrGeneration, http.StatusBadGateway, "generation_failed"},
	{service.ErrArchiveUnavailable, http.StatusServiceUnavailable, "archive_unavailable"},
}

// handleServiceError writes the response for a failed service call.
// Unmapped errors are logged and reported as 500 without detail.
func handleServiceError(c *gin.Context, log *logger.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.AbortWithStatusJSON(m.status, gin.H{"error": m.err.Error(), "code": m.code})
			return
		}
	}
	log.Error("request failed", "path", c.FullPath(), "error", err)
	abortWithError(c, http.StatusInternalServerError, "Internal server error")
}

// statusCode derives a code for errors raised by the transport itself.
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
