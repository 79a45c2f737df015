package domain

import (
	"time"
)

// WorkoutStatus tracks where a committed workout is in its lifecycle.
type WorkoutStatus string

const (
	WorkoutPlanned   WorkoutStatus = "planned"   // Initial state for manual and ai workouts
	WorkoutCompleted WorkoutStatus = "completed" // Realized metrics recorded
	WorkoutSkipped   WorkoutStatus = "skipped"
	WorkoutCanceled  WorkoutStatus = "canceled"
)

// Valid reports whether s is one of the known statuses.
func (s WorkoutStatus) Valid() bool {
	switch s {
	case WorkoutPlanned, WorkoutCompleted, WorkoutSkipped, WorkoutCanceled:
		return true
	}
	return false
}

// WorkoutOrigin records how a workout entered the calendar.
type WorkoutOrigin string

const (
	OriginManual WorkoutOrigin = "manual"
	OriginAI     WorkoutOrigin = "ai"
	OriginImport WorkoutOrigin = "import"
)

// Rating is the runner's perceived effort for a completed workout.
type Rating string

const (
	RatingTooEasy   Rating = "too_easy"
	RatingJustRight Rating = "just_right"
	RatingTooHard   Rating = "too_hard"
)

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingTooEasy, RatingJustRight, RatingTooHard:
		return true
	}
	return false
}

// Workout is a committed, schedulable training entry owned by one user.
// (UserID, PlannedDate, Position) is unique.
type Workout struct {
	ID               string        `bson:"_id" json:"id"`
	UserID           string        `bson:"userId" json:"userId"`
	TrainingTypeCode string        `bson:"trainingTypeCode" json:"trainingTypeCode"`
	PlannedDate      time.Time     `bson:"plannedDate" json:"plannedDate"` // Midnight UTC
	Position         int           `bson:"position" json:"position"`
	PlannedDistance  *int          `bson:"plannedDistance,omitempty" json:"plannedDistance,omitempty"` // Meters
	PlannedDuration  *int          `bson:"plannedDuration,omitempty" json:"plannedDuration,omitempty"` // Seconds
	Status           WorkoutStatus `bson:"status" json:"status"`
	Origin           WorkoutOrigin `bson:"origin" json:"origin"`

	// Realized fields, only set while Status is completed.
	Distance     *int       `bson:"distance,omitempty" json:"distance,omitempty"`
	Duration     *int       `bson:"duration,omitempty" json:"duration,omitempty"`
	AvgHeartRate *int       `bson:"avgHeartRate,omitempty" json:"avgHeartRate,omitempty"`
	CompletedAt  *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Rating       *Rating    `bson:"rating,omitempty" json:"rating,omitempty"`

	SuggestionID *string   `bson:"suggestionId,omitempty" json:"suggestionId,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Completion carries the realized metrics of a finished workout.
type Completion struct {
	Distance     int
	Duration     int
	AvgHeartRate int
	CompletedAt  time.Time
	Rating       *Rating
}

// Complete moves the workout to completed and records the realized metrics.
func (w *Workout) Complete(c Completion) {
	distance, duration, hr := c.Distance, c.Duration, c.AvgHeartRate
	completedAt := c.CompletedAt.UTC()
	w.Status = WorkoutCompleted
	w.Distance = &distance
	w.Duration = &duration
	w.AvgHeartRate = &hr
	w.CompletedAt = &completedAt
	w.Rating = c.Rating
}

// ClearRealized drops every field that is only meaningful for a completed workout.
func (w *Workout) ClearRealized() {
	w.Distance = nil
	w.Duration = nil
	w.AvgHeartRate = nil
	w.CompletedAt = nil
	w.Rating = nil
}
