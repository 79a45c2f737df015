package domain

import (
	"time"

	"alcyxob/run-tracker/internal/policy"
)

// SuggestionStatus tracks an AI suggestion from display to its terminal state.
type SuggestionStatus string

const (
	SuggestionShown    SuggestionStatus = "shown"    // Actionable until it expires
	SuggestionAccepted SuggestionStatus = "accepted" // Converted into a workout, immutable
	SuggestionRejected SuggestionStatus = "rejected"
	SuggestionExpired  SuggestionStatus = "expired"
)

// Step is one segment of a suggested session.
type Step struct {
	Distance *int   `bson:"distance,omitempty" json:"distance,omitempty"` // Meters
	Duration *int   `bson:"duration,omitempty" json:"duration,omitempty"` // Seconds
	Note     string `bson:"note,omitempty" json:"note,omitempty"`
}

// Suggestion is an AI-proposed, not-yet-committed training session for one date.
type Suggestion struct {
	ID               string           `bson:"_id" json:"id"`
	UserID           string           `bson:"userId" json:"userId"`
	TrainingTypeCode string           `bson:"trainingTypeCode" json:"trainingTypeCode"`
	Status           SuggestionStatus `bson:"status" json:"status"`
	PlannedDate      time.Time        `bson:"plannedDate" json:"plannedDate"` // Midnight UTC
	Steps            []Step           `bson:"steps" json:"steps"`
	Context          map[string]any   `bson:"context,omitempty" json:"context,omitempty"`   // Generator input
	Metadata         map[string]any   `bson:"metadata,omitempty" json:"metadata,omitempty"` // Opaque generator output
	WorkoutID        *string          `bson:"workoutId,omitempty" json:"workoutId,omitempty"`
	CreatedAt        time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// Expired reports whether the suggestion is past its validity window at now.
// The stored status and the creation time are independent signals; either suffices.
func (s *Suggestion) Expired(limits policy.Limits, now time.Time) bool {
	return s.Status == SuggestionExpired || limits.Expired(s.CreatedAt, now)
}

// Totals sums the distance and duration of all steps. Missing and
// non-positive values contribute nothing.
func Totals(steps []Step) (distance, duration int) {
	for _, st := range steps {
		if st.Distance != nil && *st.Distance > 0 {
			distance += *st.Distance
		}
		if st.Duration != nil && *st.Duration > 0 {
			duration += *st.Duration
		}
	}
	return distance, duration
}

// EventKind names an entry of the suggestion audit trail.
type EventKind string

const (
	EventRegenerate EventKind = "regenerate"
)

// SuggestionEvent is an append-only audit record attached to a suggestion.
type SuggestionEvent struct {
	ID           string         `bson:"_id" json:"id"` // ULID, sorts by occurrence
	SuggestionID string         `bson:"suggestionId" json:"suggestionId"`
	UserID       string         `bson:"userId" json:"userId"`
	Kind         EventKind      `bson:"kind" json:"kind"`
	Metadata     map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	OccurredAt   time.Time      `bson:"occurredAt" json:"occurredAt"`
}
