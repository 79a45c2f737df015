package repository

import (
	"alcyxob/run-tracker/internal/domain" // Import our defined domain models
	"context"                             // Standard for request-scoped deadlines, cancellation signals, etc.
	"time"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	// ErrPositionTaken is returned when (user, planned date, position) is already used by another workout.
	ErrPositionTaken = RepositoryError("workout position already taken")
	// ErrSuggestionLinked is returned when another workout already references the suggestion.
	ErrSuggestionLinked = RepositoryError("suggestion already linked to a workout")
	// ErrStateChanged is returned by conditional updates whose precondition no longer holds.
	ErrStateChanged = RepositoryError("row changed concurrently")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// WorkoutRepository defines the interface for interacting with workout data.
// Every read and write is scoped to the owning user.
type WorkoutRepository interface {
	// Create assigns ID and timestamps and inserts the workout.
	// Fails with ErrPositionTaken or ErrSuggestionLinked on the matching unique constraint.
	Create(ctx context.Context, workout *domain.Workout) (string, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Workout, error)
	// UpdateStatus persists status, realized metrics and rating (nil clears a field).
	UpdateStatus(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, userID, id string) error
}

// SuggestionRepository defines the interface for interacting with suggestion data.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.Suggestion) (string, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Suggestion, error)
	// CountCreatedForDate counts the user's suggestions for plannedDate created in [from, to).
	CountCreatedForDate(ctx context.Context, userID string, plannedDate, from, to time.Time) (int, error)
	// MarkAccepted links the workout and sets status accepted, only if the
	// suggestion is still shown and unlinked. Otherwise ErrStateChanged.
	// at becomes the new UpdatedAt.
	MarkAccepted(ctx context.Context, userID, id, workoutID string, at time.Time) error
	// UpdateStatus moves the suggestion from `from` to `to`; ErrStateChanged if it is no longer in `from`.
	UpdateStatus(ctx context.Context, userID, id string, from, to domain.SuggestionStatus, at time.Time) error
}

// SuggestionEventRepository stores the append-only suggestion audit trail.
type SuggestionEventRepository interface {
	Create(ctx context.Context, event *domain.SuggestionEvent) (string, error)
	GetBySuggestionID(ctx context.Context, userID, suggestionID string) ([]domain.SuggestionEvent, error)
}

// TrainingTypeRepository reads the training type catalog.
type TrainingTypeRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.TrainingType, error)
}
