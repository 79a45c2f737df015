package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/generator"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/repository"
)

func TestCreateSuggestion(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, domain.SuggestionShown, s.Status)
	assert.Equal(t, testDate, s.PlannedDate)
	assert.Equal(t, f.clock.Now(), s.CreatedAt)
	assert.Nil(t, s.WorkoutID)

	stored, err := f.suggestions.GetByID(context.Background(), testUser, s.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Steps, 3)
	assert.Equal(t, "fixed", stored.Metadata["generator"])
}

func TestCreateSuggestion_NormalizesPlannedDate(t *testing.T) {
	f := newFixture(t)
	s, err := f.svc.CreateSuggestion(context.Background(), testUser, CreateSuggestionInput{
		TrainingTypeCode: "easy_run",
		PlannedDate:      testDate.Add(15 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, testDate, s.PlannedDate)
}

func TestCreateSuggestion_UnknownTrainingType(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateSuggestion(context.Background(), testUser, CreateSuggestionInput{
		TrainingTypeCode: "swim",
		PlannedDate:      testDate,
	})
	assert.ErrorIs(t, err, ErrUnknownTrainingType)
	assert.Zero(t, f.gen.calls)
}

func TestCreateSuggestion_QuotaPerDateAndDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.create(t)
	}

	_, err := f.svc.CreateSuggestion(ctx, testUser, CreateSuggestionInput{TrainingTypeCode: "tempo", PlannedDate: testDate})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 3, f.gen.calls)

	// Another date and another user have their own budget.
	_, err = f.svc.CreateSuggestion(ctx, testUser, CreateSuggestionInput{TrainingTypeCode: "tempo", PlannedDate: testDate.AddDate(0, 0, 1)})
	assert.NoError(t, err)
	_, err = f.svc.CreateSuggestion(ctx, "user-2", CreateSuggestionInput{TrainingTypeCode: "tempo", PlannedDate: testDate})
	assert.NoError(t, err)

	// The window resets at the next UTC midnight.
	f.clock.Advance(15 * time.Hour)
	_, err = f.svc.CreateSuggestion(ctx, testUser, CreateSuggestionInput{TrainingTypeCode: "tempo", PlannedDate: testDate})
	assert.NoError(t, err)
}

func TestCreateSuggestion_IncompleteGeneration(t *testing.T) {
	f := newFixture(t)
	f.gen.steps = []domain.Step{{Note: "just vibes"}, {Distance: intp(0), Duration: intp(-5)}}

	_, err := f.svc.CreateSuggestion(context.Background(), testUser, CreateSuggestionInput{TrainingTypeCode: "tempo", PlannedDate: testDate})
	assert.ErrorIs(t, err, ErrIncompleteGeneration)

	from, to := f.clock.Now().Add(-time.Hour), f.clock.Now().Add(time.Hour)
	n, err := f.suggestions.CountCreatedForDate(context.Background(), testUser, testDate, from, to)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateSuggestion_GenerationFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errInjected

	_, err := f.svc.CreateSuggestion(context.Background(), testUser, CreateSuggestionInput{TrainingTypeCode: "tempo", PlannedDate: testDate})
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, errInjected)
}

func TestCreateSuggestion_ArchivesPayload(t *testing.T) {
	archive := &recordingArchive{}
	f := newFixture(t, withArchive(archive))
	s := f.create(t)
	assert.Equal(t, []string{s.ID}, archive.stored)

	url, err := f.svc.GetGenerationURL(context.Background(), testUser, s.ID)
	require.NoError(t, err)
	assert.Contains(t, url, s.ID)
}

func TestCreateSuggestion_ArchiveFailureIsIgnored(t *testing.T) {
	f := newFixture(t, withArchive(&recordingArchive{err: errInjected}))
	f.create(t)
}

func TestGetGenerationURL_NoArchive(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)
	_, err := f.svc.GetGenerationURL(context.Background(), testUser, s.ID)
	assert.ErrorIs(t, err, ErrArchiveUnavailable)
}

func TestAcceptSuggestion_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t)
	second := f.create(t)

	w, err := f.svc.AcceptSuggestion(ctx, testUser, first.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkoutPlanned, w.Status)
	assert.Equal(t, domain.OriginAI, w.Origin)
	require.NotNil(t, w.PlannedDistance)
	require.NotNil(t, w.PlannedDuration)
	assert.Equal(t, 5000, *w.PlannedDistance)
	assert.Equal(t, 1800, *w.PlannedDuration)
	assert.Equal(t, testDate, w.PlannedDate)
	assert.Equal(t, 1, w.Position)
	require.NotNil(t, w.SuggestionID)
	assert.Equal(t, first.ID, *w.SuggestionID)

	stored, err := f.suggestions.GetByID(ctx, testUser, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionAccepted, stored.Status)
	require.NotNil(t, stored.WorkoutID)
	assert.Equal(t, w.ID, *stored.WorkoutID)

	_, err = f.svc.AcceptSuggestion(ctx, testUser, second.ID, 1)
	assert.ErrorIs(t, err, ErrPositionConflict)

	stillShown, err := f.suggestions.GetByID(ctx, testUser, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionShown, stillShown.Status)
	assert.Nil(t, stillShown.WorkoutID)

	w2, err := f.svc.AcceptSuggestion(ctx, testUser, second.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, w2.Position)
}

func TestAcceptSuggestion_AtMostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)

	_, err := f.svc.AcceptSuggestion(ctx, testUser, s.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.AcceptSuggestion(ctx, testUser, s.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAcceptSuggestion_ConcurrentSameSuggestion(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.AcceptSuggestion(context.Background(), testUser, s.ID, i+1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, isOneOf(err, ErrInvalidState, ErrAlreadyLinked), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.suggestions.GetByID(context.Background(), testUser, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionAccepted, stored.Status)
}

func TestAcceptSuggestion_ConcurrentSamePosition(t *testing.T) {
	f := newFixture(t)
	a := f.create(t)
	b := f.create(t)

	var wg sync.WaitGroup
	ids := []string{a.ID, b.ID}
	workouts := make([]*domain.Workout, 2)
	errs := make([]error, 2)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			workouts[i], errs[i] = f.svc.AcceptSuggestion(context.Background(), testUser, ids[i], 1)
		}(i)
	}
	wg.Wait()

	winner, loser := 0, 1
	if errs[0] != nil {
		winner, loser = 1, 0
	}
	require.NoError(t, errs[winner])
	assert.NotNil(t, workouts[winner])
	assert.ErrorIs(t, errs[loser], ErrPositionConflict)

	lost, err := f.suggestions.GetByID(context.Background(), testUser, ids[loser])
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionShown, lost.Status)
	assert.Nil(t, lost.WorkoutID)
}

func TestAcceptSuggestion_NotFoundForOtherUser(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)
	_, err := f.svc.AcceptSuggestion(context.Background(), "user-2", s.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSuggestion_ExpiresAfterWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)

	f.clock.Advance(24*time.Hour - time.Second)
	view, err := f.svc.GetSuggestion(ctx, testUser, s.ID)
	require.NoError(t, err)
	assert.False(t, view.Expired)
	assert.Equal(t, s.CreatedAt.Add(24*time.Hour), view.ExpiresAt)

	f.clock.Advance(time.Second)
	view, err = f.svc.GetSuggestion(ctx, testUser, s.ID)
	require.NoError(t, err)
	assert.True(t, view.Expired)
	assert.Equal(t, domain.SuggestionShown, view.Suggestion.Status)

	_, err = f.svc.AcceptSuggestion(ctx, testUser, s.ID, 1)
	assert.ErrorIs(t, err, ErrExpired)
	_, err = f.svc.RejectSuggestion(ctx, testUser, s.ID)
	assert.ErrorIs(t, err, ErrExpired)
	_, err = f.svc.RegenerateSuggestion(ctx, testUser, s.ID, RegenerateInput{})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSuggestion_StoredExpiredStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)
	require.NoError(t, f.suggestions.UpdateStatus(ctx, testUser, s.ID, domain.SuggestionShown, domain.SuggestionExpired, f.clock.Now()))

	_, err := f.svc.AcceptSuggestion(ctx, testUser, s.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.RegenerateSuggestion(ctx, testUser, s.ID, RegenerateInput{})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestAcceptSuggestion_CompensatesLostRace(t *testing.T) {
	f := newFixture(t, withSuggestionRepo(func(r repository.SuggestionRepository) repository.SuggestionRepository {
		return &failingMarkAccepted{SuggestionRepository: r, err: repository.ErrStateChanged}
	}))
	ctx := context.Background()
	s := f.create(t)

	_, err := f.svc.AcceptSuggestion(ctx, testUser, s.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidState)

	// The compensating delete freed both the position and the suggestion link.
	_, err = f.workouts.CreatePlanned(ctx, &domain.Workout{
		UserID: testUser, TrainingTypeCode: "tempo", PlannedDate: testDate, Position: 1,
		Origin: domain.OriginAI, SuggestionID: &s.ID,
	})
	assert.NoError(t, err)
}

func TestAcceptSuggestion_CompensatesStoreFailure(t *testing.T) {
	f := newFixture(t, withSuggestionRepo(func(r repository.SuggestionRepository) repository.SuggestionRepository {
		return &failingMarkAccepted{SuggestionRepository: r, err: errInjected}
	}))
	ctx := context.Background()
	s := f.create(t)

	_, err := f.svc.AcceptSuggestion(ctx, testUser, s.ID, 1)
	assert.ErrorIs(t, err, ErrInternal)

	_, err = f.workouts.CreatePlanned(ctx, &domain.Workout{
		UserID: testUser, TrainingTypeCode: "tempo", PlannedDate: testDate, Position: 1, Origin: domain.OriginManual,
	})
	assert.NoError(t, err)
}

func TestAcceptSuggestion_FailedCompensationIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t,
		withLogger(&logger.Logger{SugaredLogger: zap.New(core).Sugar()}),
		withSuggestionRepo(func(r repository.SuggestionRepository) repository.SuggestionRepository {
			return &failingMarkAccepted{SuggestionRepository: r, err: errInjected}
		}),
		withWorkoutRepo(func(r repository.WorkoutRepository) repository.WorkoutRepository {
			return &failingDelete{WorkoutRepository: r}
		}),
	)
	ctx := context.Background()
	s := f.create(t)

	_, err := f.svc.AcceptSuggestion(ctx, testUser, s.ID, 1)
	assert.ErrorIs(t, err, ErrInternal)

	orphans := logs.FilterMessageSnippet("orphaned workout").All()
	require.Len(t, orphans, 1)
	assert.Equal(t, zapcore.ErrorLevel, orphans[0].Level)
	assert.Equal(t, s.ID, orphans[0].ContextMap()["suggestion_id"])

	stored, err := f.suggestions.GetByID(ctx, testUser, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionShown, stored.Status)
}

func TestRejectSuggestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)

	f.clock.Advance(time.Hour)
	rejected, err := f.svc.RejectSuggestion(ctx, testUser, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionRejected, rejected.Status)
	assert.Equal(t, f.clock.Now(), rejected.UpdatedAt)

	stored, err := f.suggestions.GetByID(ctx, testUser, s.ID)
	require.NoError(t, err)
	assert.Equal(t, rejected.UpdatedAt, stored.UpdatedAt)

	_, err = f.svc.RejectSuggestion(ctx, testUser, s.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.AcceptSuggestion(ctx, testUser, s.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.RejectSuggestion(ctx, testUser, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegenerateSuggestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.create(t)

	fresh, err := f.svc.RegenerateSuggestion(ctx, testUser, old.ID, RegenerateInput{
		Reason:         "too_hard",
		AdjustmentHint: "shorter please",
	})
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Equal(t, domain.SuggestionShown, fresh.Status)
	assert.Equal(t, old.PlannedDate, fresh.PlannedDate)
	assert.Equal(t, old.TrainingTypeCode, fresh.TrainingTypeCode)

	assert.Equal(t, "too_hard", f.gen.last.Context[generator.KeyRegenerationReason])
	assert.Equal(t, "shorter please", f.gen.last.Context[generator.KeyAdjustmentHint])
	assert.Equal(t, old.ID, f.gen.last.Context[generator.KeyRegeneratedFrom])

	stored, err := f.suggestions.GetByID(ctx, testUser, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionRejected, stored.Status)

	events, err := f.svc.GetSuggestionEvents(ctx, testUser, old.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventRegenerate, events[0].Kind)
	assert.Equal(t, fresh.ID, events[0].Metadata["new_suggestion_id"])
	assert.Equal(t, "too_hard", events[0].Metadata["reason"])

	// A rejected suggestion can still be regenerated.
	_, err = f.svc.RegenerateSuggestion(ctx, testUser, old.ID, RegenerateInput{})
	assert.NoError(t, err)
}

func TestRegenerateSuggestion_AcceptedIsInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)
	_, err := f.svc.AcceptSuggestion(ctx, testUser, s.ID, 1)
	require.NoError(t, err)
	calls := f.gen.calls

	_, err = f.svc.RegenerateSuggestion(ctx, testUser, s.ID, RegenerateInput{Reason: "again"})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, calls, f.gen.calls)

	from, to := f.clock.Now().Add(-time.Hour), f.clock.Now().Add(time.Hour)
	n, err := f.suggestions.CountCreatedForDate(ctx, testUser, testDate, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegenerateSuggestion_CountsTowardQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.create(t)
	f.create(t)

	_, err := f.svc.RegenerateSuggestion(ctx, testUser, s.ID, RegenerateInput{})
	require.NoError(t, err)
	_, err = f.svc.RegenerateSuggestion(ctx, testUser, s.ID, RegenerateInput{})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestRegenerateSuggestion_EventFailureIsIgnored(t *testing.T) {
	f := newFixture(t, withEventRepo(func(r repository.SuggestionEventRepository) repository.SuggestionEventRepository {
		return &failingEvents{SuggestionEventRepository: r}
	}))
	ctx := context.Background()
	s := f.create(t)

	fresh, err := f.svc.RegenerateSuggestion(ctx, testUser, s.ID, RegenerateInput{Reason: "bored"})
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.ID)
}

func TestRegenerateSuggestion_OldRejectFailureIsIgnored(t *testing.T) {
	f := newFixture(t, withSuggestionRepo(func(r repository.SuggestionRepository) repository.SuggestionRepository {
		return &failingUpdateStatus{SuggestionRepository: r}
	}))
	ctx := context.Background()
	old := f.create(t)

	fresh, err := f.svc.RegenerateSuggestion(ctx, testUser, old.ID, RegenerateInput{Reason: "too_long"})
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Equal(t, domain.SuggestionShown, fresh.Status)

	stored, err := f.suggestions.GetByID(ctx, testUser, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionShown, stored.Status)

	events, err := f.svc.GetSuggestionEvents(ctx, testUser, old.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventRegenerate, events[0].Kind)
	assert.Equal(t, fresh.ID, events[0].Metadata["new_suggestion_id"])
}

func TestGetSuggestionEvents_Ownership(t *testing.T) {
	f := newFixture(t)
	s := f.create(t)
	_, err := f.svc.GetSuggestionEvents(context.Background(), "user-2", s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func isOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
