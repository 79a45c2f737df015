package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---
// Every failure kind of the lifecycle is a sentinel; callers map them with errors.Is.
var (
	ErrUnknownTrainingType  = errors.New("unknown training type")
	ErrQuotaExceeded        = errors.New("daily suggestion limit reached for this date")
	ErrIncompleteGeneration = errors.New("generated suggestion has neither distance nor duration")
	ErrGeneration           = errors.New("suggestion generation failed")
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrAlreadyLinked        = errors.New("suggestion already linked to a workout")
	ErrExpired              = errors.New("suggestion expired")
	ErrPositionConflict     = errors.New("position already taken for this date")
	ErrAlreadyCompleted     = errors.New("workout already completed")
	ErrAlreadySkipped       = errors.New("workout already skipped")
	ErrAlreadyCanceled      = errors.New("workout already canceled")
	ErrNotCompleted         = errors.New("workout is not completed")
	ErrArchiveUnavailable   = errors.New("generation archive unavailable")

	// ErrInternal matches every *InternalError.
	ErrInternal = errors.New("internal error")
)

// InternalError wraps an unexpected collaborator failure.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

func internal(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}
