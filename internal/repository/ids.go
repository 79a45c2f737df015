package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID returns a fresh identifier for suggestions and workouts.
func NewID() string {
	return uuid.NewString()
}

// NewEventID returns a ULID stamped with the event's occurrence time so
// audit records sort chronologically by ID.
func NewEventID(occurredAt time.Time) string {
	return ulid.MustNew(ulid.Timestamp(occurredAt), ulid.DefaultEntropy()).String()
}
