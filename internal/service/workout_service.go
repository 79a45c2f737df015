package service

import (
	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/repository"
	"context"
	"errors"
)

// CompleteWorkoutInput carries the realized metrics of a finished workout.
type CompleteWorkoutInput = domain.Completion

type WorkoutService interface {
	GetWorkout(ctx context.Context, userID, workoutID string) (*domain.Workout, error)

	// Status transitions
	CompleteWorkout(ctx context.Context, userID, workoutID string, in CompleteWorkoutInput) (*domain.Workout, error)
	SkipWorkout(ctx context.Context, userID, workoutID string) (*domain.Workout, error)
	CancelWorkout(ctx context.Context, userID, workoutID string) (*domain.Workout, error)
	RateWorkout(ctx context.Context, userID, workoutID string, rating domain.Rating) (*domain.Workout, error)

	// CreatePlanned inserts a new planned workout. Used by suggestion acceptance.
	CreatePlanned(ctx context.Context, workout *domain.Workout) (*domain.Workout, error)
	// Discard removes a workout whose creation must be rolled back.
	Discard(ctx context.Context, userID, workoutID string) error
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	workoutRepo repository.WorkoutRepository
	log         *logger.Logger
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository, log *logger.Logger) WorkoutService {
	return &workoutService{
		workoutRepo: workoutRepo,
		log:         log.With("service", "WorkoutService"),
	}
}

// selfTransitionErrors is the failure reported when an action is not allowed from the current status.
var selfTransitionErrors = map[domain.WorkoutAction]error{
	domain.ActionComplete: ErrAlreadyCompleted,
	domain.ActionSkip:     ErrAlreadySkipped,
	domain.ActionCancel:   ErrAlreadyCanceled,
	domain.ActionRate:     ErrNotCompleted,
}

func (s *workoutService) GetWorkout(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	return s.load(ctx, userID, workoutID)
}

// CompleteWorkout records realized metrics. Re-completing is rejected, not ignored.
func (s *workoutService) CompleteWorkout(ctx context.Context, userID, workoutID string, in CompleteWorkoutInput) (*domain.Workout, error) {
	return s.transition(ctx, userID, workoutID, domain.ActionComplete, func(w *domain.Workout) {
		w.Complete(in)
	})
}

// SkipWorkout marks the workout skipped and drops any realized data.
func (s *workoutService) SkipWorkout(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	return s.transition(ctx, userID, workoutID, domain.ActionSkip, func(w *domain.Workout) {
		w.Status = domain.WorkoutSkipped
		w.ClearRealized()
	})
}

// CancelWorkout marks the workout canceled and drops any realized data.
func (s *workoutService) CancelWorkout(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	return s.transition(ctx, userID, workoutID, domain.ActionCancel, func(w *domain.Workout) {
		w.Status = domain.WorkoutCanceled
		w.ClearRealized()
	})
}

// RateWorkout attaches a rating to a completed workout.
func (s *workoutService) RateWorkout(ctx context.Context, userID, workoutID string, rating domain.Rating) (*domain.Workout, error) {
	return s.transition(ctx, userID, workoutID, domain.ActionRate, func(w *domain.Workout) {
		r := rating
		w.Rating = &r
	})
}

func (s *workoutService) transition(ctx context.Context, userID, workoutID string, action domain.WorkoutAction, apply func(*domain.Workout)) (*domain.Workout, error) {
	workout, err := s.load(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	next, ok := domain.NextWorkoutStatus(workout.Status, action)
	if !ok {
		return nil, selfTransitionErrors[action]
	}

	apply(workout)
	workout.Status = next

	if err := s.workoutRepo.UpdateStatus(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("update workout", err)
	}
	s.log.Debug("workout transitioned", "workout_id", workoutID, "action", action, "status", next)
	return workout, nil
}

func (s *workoutService) load(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, userID, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("load workout", err)
	}
	return workout, nil
}

// CreatePlanned inserts a planned workout and maps the unique constraints to lifecycle failures.
func (s *workoutService) CreatePlanned(ctx context.Context, workout *domain.Workout) (*domain.Workout, error) {
	workout.Status = domain.WorkoutPlanned
	workout.ClearRealized()

	if _, err := s.workoutRepo.Create(ctx, workout); err != nil {
		switch {
		case errors.Is(err, repository.ErrPositionTaken):
			return nil, ErrPositionConflict
		case errors.Is(err, repository.ErrSuggestionLinked):
			return nil, ErrAlreadyLinked
		}
		return nil, internal("create workout", err)
	}
	return workout, nil
}

func (s *workoutService) Discard(ctx context.Context, userID, workoutID string) error {
	if err := s.workoutRepo.Delete(ctx, userID, workoutID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return internal("delete workout", err)
	}
	return nil
}
