package service

import (
	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/generator"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/policy"
	"alcyxob/run-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"
)

// compensationTimeout bounds the rollback of a half-finished accept; it runs
// even when the request context is already done.
const compensationTimeout = 5 * time.Second

// CreateSuggestionInput is a validated request for a new suggestion.
type CreateSuggestionInput struct {
	TrainingTypeCode string
	PlannedDate      time.Time
	Context          map[string]any
}

// RegenerateInput carries the optional user feedback for a regeneration.
type RegenerateInput struct {
	Reason         string
	AdjustmentHint string
}

// SuggestionView is a suggestion with its derived expiry.
type SuggestionView struct {
	Suggestion *domain.Suggestion
	ExpiresAt  time.Time
	Expired    bool
}

// GenerationArchive stores generation payloads outside the primary store.
type GenerationArchive interface {
	Store(ctx context.Context, s *domain.Suggestion) error
	DownloadURL(ctx context.Context, s *domain.Suggestion) (string, error)
}

type SuggestionService interface {
	CreateSuggestion(ctx context.Context, userID string, in CreateSuggestionInput) (*domain.Suggestion, error)
	AcceptSuggestion(ctx context.Context, userID, suggestionID string, position int) (*domain.Workout, error)
	RejectSuggestion(ctx context.Context, userID, suggestionID string) (*domain.Suggestion, error)
	RegenerateSuggestion(ctx context.Context, userID, suggestionID string, in RegenerateInput) (*domain.Suggestion, error)

	GetSuggestion(ctx context.Context, userID, suggestionID string) (*SuggestionView, error)
	GetSuggestionEvents(ctx context.Context, userID, suggestionID string) ([]domain.SuggestionEvent, error)
	GetGenerationURL(ctx context.Context, userID, suggestionID string) (string, error)
}

// SuggestionOption customizes a suggestion service.
type SuggestionOption func(*suggestionService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) SuggestionOption {
	return func(s *suggestionService) { s.now = now }
}

// WithArchive enables best-effort archiving of generation payloads.
func WithArchive(archive GenerationArchive) SuggestionOption {
	return func(s *suggestionService) { s.archive = archive }
}

// suggestionService implements the SuggestionService interface.
type suggestionService struct {
	suggestionRepo   repository.SuggestionRepository
	eventRepo        repository.SuggestionEventRepository
	trainingTypeRepo repository.TrainingTypeRepository
	workouts         WorkoutService
	generator        generator.Generator
	archive          GenerationArchive
	limits           policy.Limits
	now              func() time.Time
	log              *logger.Logger
}

// NewSuggestionService creates a new instance of suggestionService.
func NewSuggestionService(
	suggestionRepo repository.SuggestionRepository,
	eventRepo repository.SuggestionEventRepository,
	trainingTypeRepo repository.TrainingTypeRepository,
	workouts WorkoutService,
	gen generator.Generator,
	limits policy.Limits,
	log *logger.Logger,
	opts ...SuggestionOption,
) SuggestionService {
	s := &suggestionService{
		suggestionRepo:   suggestionRepo,
		eventRepo:        eventRepo,
		trainingTypeRepo: trainingTypeRepo,
		workouts:         workouts,
		generator:        gen,
		limits:           limits.Normalize(),
		now:              time.Now,
		log:              log.With("service", "SuggestionService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// === Creation ===

// CreateSuggestion generates and stores a new suggestion for a date, within the daily quota.
func (s *suggestionService) CreateSuggestion(ctx context.Context, userID string, in CreateSuggestionInput) (*domain.Suggestion, error) {
	plannedDate := policy.DateOnly(in.PlannedDate)
	if err := s.requireTrainingType(ctx, in.TrainingTypeCode); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.checkQuota(ctx, userID, plannedDate, now); err != nil {
		return nil, err
	}
	return s.generate(ctx, userID, in.TrainingTypeCode, plannedDate, in.Context, now)
}

func (s *suggestionService) requireTrainingType(ctx context.Context, code string) error {
	tt, err := s.trainingTypeRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownTrainingType
		}
		return internal("load training type", err)
	}
	if !tt.Active {
		return ErrUnknownTrainingType
	}
	return nil
}

// checkQuota is read-then-decide: concurrent callers may overshoot the limit
// by their number. The limit is cost control, not a correctness guarantee.
func (s *suggestionService) checkQuota(ctx context.Context, userID string, plannedDate, now time.Time) error {
	from, to := policy.QuotaWindow(now)
	used, err := s.suggestionRepo.CountCreatedForDate(ctx, userID, plannedDate, from, to)
	if err != nil {
		return internal("count suggestions", err)
	}
	if s.limits.QuotaExceeded(used) {
		return ErrQuotaExceeded
	}
	return nil
}

func (s *suggestionService) generate(ctx context.Context, userID, code string, plannedDate time.Time, genCtx map[string]any, now time.Time) (*domain.Suggestion, error) {
	result, err := s.generator.Generate(ctx, generator.Request{
		UserID:           userID,
		TrainingTypeCode: code,
		PlannedDate:      plannedDate,
		Context:          genCtx,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	distance, duration := domain.Totals(result.Steps)
	if distance <= 0 && duration <= 0 {
		s.log.Warn("generator returned an empty session", "training_type", code, "steps", len(result.Steps))
		return nil, ErrIncompleteGeneration
	}

	suggestion := &domain.Suggestion{
		UserID:           userID,
		TrainingTypeCode: code,
		Status:           domain.SuggestionShown,
		PlannedDate:      plannedDate,
		Steps:            result.Steps,
		Context:          genCtx,
		Metadata:         result.Metadata,
		CreatedAt:        now,
	}
	if _, err := s.suggestionRepo.Create(ctx, suggestion); err != nil {
		return nil, internal("create suggestion", err)
	}

	if s.archive != nil {
		if err := s.archive.Store(ctx, suggestion); err != nil {
			s.log.Warn("failed to archive generation", "suggestion_id", suggestion.ID, "error", err)
		}
	}
	return suggestion, nil
}

// === Acceptance ===

// AcceptSuggestion converts a shown suggestion into a planned workout at position.
// The workout insert and the suggestion update are two writes; if the second
// fails the workout is deleted again so no workout outlives an unaccepted suggestion.
func (s *suggestionService) AcceptSuggestion(ctx context.Context, userID, suggestionID string, position int) (*domain.Workout, error) {
	suggestion, err := s.load(ctx, userID, suggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status != domain.SuggestionShown {
		return nil, ErrInvalidState
	}
	if suggestion.WorkoutID != nil {
		return nil, ErrAlreadyLinked
	}
	now := s.now().UTC()
	if suggestion.Expired(s.limits, now) {
		return nil, ErrExpired
	}

	distance, duration := domain.Totals(suggestion.Steps)
	workout, err := s.workouts.CreatePlanned(ctx, &domain.Workout{
		UserID:           userID,
		TrainingTypeCode: suggestion.TrainingTypeCode,
		PlannedDate:      suggestion.PlannedDate,
		Position:         position,
		PlannedDistance:  positiveOrNil(distance),
		PlannedDuration:  positiveOrNil(duration),
		Origin:           domain.OriginAI,
		SuggestionID:     &suggestion.ID,
		CreatedAt:        now,
	})
	if err != nil {
		// Nothing was written; the suggestion stays shown and unlinked.
		return nil, err
	}

	if err := s.suggestionRepo.MarkAccepted(ctx, userID, suggestionID, workout.ID, now); err != nil {
		s.compensate(ctx, workout, err)
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, ErrInvalidState
		}
		return nil, internal("mark suggestion accepted", err)
	}

	s.log.Info("suggestion accepted", "suggestion_id", suggestionID, "workout_id", workout.ID, "position", position)
	return workout, nil
}

// compensate deletes a workout whose suggestion could not be marked accepted.
// A failed delete leaves an orphan that is logged for manual reconciliation.
func (s *suggestionService) compensate(ctx context.Context, workout *domain.Workout, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.workouts.Discard(cctx, workout.UserID, workout.ID); err != nil {
		s.log.Error("orphaned workout: compensation failed, manual reconciliation required",
			"workout_id", workout.ID,
			"user_id", workout.UserID,
			"suggestion_id", *workout.SuggestionID,
			"cause", cause,
			"error", err,
		)
		return
	}
	s.log.Warn("accept rolled back", "workout_id", workout.ID, "suggestion_id", *workout.SuggestionID, "cause", cause)
}

// === Rejection ===

// RejectSuggestion marks a shown, unexpired suggestion rejected.
func (s *suggestionService) RejectSuggestion(ctx context.Context, userID, suggestionID string) (*domain.Suggestion, error) {
	suggestion, err := s.load(ctx, userID, suggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status != domain.SuggestionShown {
		return nil, ErrInvalidState
	}
	now := s.now().UTC()
	if suggestion.Expired(s.limits, now) {
		return nil, ErrExpired
	}

	err = s.suggestionRepo.UpdateStatus(ctx, userID, suggestionID, domain.SuggestionShown, domain.SuggestionRejected, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStateChanged):
			return nil, ErrInvalidState
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, internal("reject suggestion", err)
	}
	suggestion.Status = domain.SuggestionRejected
	suggestion.UpdatedAt = now
	return suggestion, nil
}

// === Regeneration ===

// RegenerateSuggestion produces a fresh suggestion from an existing one. The
// new row is the result; retiring the old row and the audit event are best-effort.
func (s *suggestionService) RegenerateSuggestion(ctx context.Context, userID, suggestionID string, in RegenerateInput) (*domain.Suggestion, error) {
	old, err := s.load(ctx, userID, suggestionID)
	if err != nil {
		return nil, err
	}
	if old.Status == domain.SuggestionAccepted {
		return nil, ErrInvalidState
	}
	now := s.now().UTC()
	if old.Expired(s.limits, now) {
		return nil, ErrExpired
	}
	if err := s.requireTrainingType(ctx, old.TrainingTypeCode); err != nil {
		return nil, err
	}
	if err := s.checkQuota(ctx, userID, old.PlannedDate, now); err != nil {
		return nil, err
	}

	genCtx := make(map[string]any, len(old.Context)+3)
	for k, v := range old.Context {
		genCtx[k] = v
	}
	if in.Reason != "" {
		genCtx[generator.KeyRegenerationReason] = in.Reason
	}
	if in.AdjustmentHint != "" {
		genCtx[generator.KeyAdjustmentHint] = in.AdjustmentHint
	}
	genCtx[generator.KeyRegeneratedFrom] = old.ID

	fresh, err := s.generate(ctx, userID, old.TrainingTypeCode, old.PlannedDate, genCtx, now)
	if err != nil {
		return nil, err
	}

	if old.Status == domain.SuggestionShown {
		err := s.suggestionRepo.UpdateStatus(ctx, userID, old.ID, domain.SuggestionShown, domain.SuggestionRejected, now)
		if err != nil {
			// The stale row stays shown and ages out through the expiry check.
			s.log.Warn("failed to reject regenerated suggestion", "suggestion_id", old.ID, "new_suggestion_id", fresh.ID, "error", err)
		}
	}

	s.recordEvent(ctx, &domain.SuggestionEvent{
		SuggestionID: old.ID,
		UserID:       userID,
		Kind:         domain.EventRegenerate,
		Metadata: map[string]any{
			"new_suggestion_id": fresh.ID,
			"reason":            in.Reason,
			"adjustment_hint":   in.AdjustmentHint,
		},
		OccurredAt: now,
	})
	return fresh, nil
}

// recordEvent appends to the audit trail. Failures are logged and dropped.
func (s *suggestionService) recordEvent(ctx context.Context, event *domain.SuggestionEvent) {
	if _, err := s.eventRepo.Create(ctx, event); err != nil {
		s.log.Warn("failed to record suggestion event", "suggestion_id", event.SuggestionID, "kind", event.Kind, "error", err)
	}
}

// === Reads ===

func (s *suggestionService) GetSuggestion(ctx context.Context, userID, suggestionID string) (*SuggestionView, error) {
	suggestion, err := s.load(ctx, userID, suggestionID)
	if err != nil {
		return nil, err
	}
	return &SuggestionView{
		Suggestion: suggestion,
		ExpiresAt:  s.limits.ExpiresAt(suggestion.CreatedAt),
		Expired:    suggestion.Expired(s.limits, s.now().UTC()),
	}, nil
}

func (s *suggestionService) GetSuggestionEvents(ctx context.Context, userID, suggestionID string) ([]domain.SuggestionEvent, error) {
	if _, err := s.load(ctx, userID, suggestionID); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.GetBySuggestionID(ctx, userID, suggestionID)
	if err != nil {
		return nil, internal("load suggestion events", err)
	}
	return events, nil
}

// GetGenerationURL returns a temporary link to the archived generation payload.
func (s *suggestionService) GetGenerationURL(ctx context.Context, userID, suggestionID string) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveUnavailable
	}
	suggestion, err := s.load(ctx, userID, suggestionID)
	if err != nil {
		return "", err
	}
	url, err := s.archive.DownloadURL(ctx, suggestion)
	if err != nil {
		return "", internal("presign generation", err)
	}
	return url, nil
}

func (s *suggestionService) load(ctx context.Context, userID, suggestionID string) (*domain.Suggestion, error) {
	suggestion, err := s.suggestionRepo.GetByID(ctx, userID, suggestionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("load suggestion", err)
	}
	return suggestion, nil
}

func positiveOrNil(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
