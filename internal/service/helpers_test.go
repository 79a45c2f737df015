package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/generator"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/policy"
	"alcyxob/run-tracker/internal/repository"
	"alcyxob/run-tracker/internal/repository/sqlite"
)

const testUser = "user-1"

var testDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixedGenerator returns the same steps on every call.
type fixedGenerator struct {
	steps []domain.Step
	err   error
	calls int
	last  generator.Request
}

func (g *fixedGenerator) Generate(_ context.Context, req generator.Request) (*generator.Result, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	steps := make([]domain.Step, len(g.steps))
	copy(steps, g.steps)
	return &generator.Result{Steps: steps, Metadata: map[string]any{"generator": "fixed"}}, nil
}

func intp(v int) *int { return &v }

// fiveK sums to 5000m / 1800s.
func fiveK() []domain.Step {
	return []domain.Step{
		{Distance: intp(1000), Duration: intp(420), Note: "warm up"},
		{Distance: intp(3000), Duration: intp(960), Note: "steady"},
		{Distance: intp(1000), Duration: intp(420), Note: "cool down"},
	}
}

type fixture struct {
	clock       *testClock
	gen         *fixedGenerator
	suggestions repository.SuggestionRepository
	events      repository.SuggestionEventRepository
	types       repository.TrainingTypeRepository
	workoutRepo repository.WorkoutRepository
	workouts    WorkoutService
	svc         SuggestionService
	log         *logger.Logger
	archive     GenerationArchive
}

type fixtureOption func(*fixture)

func withSuggestionRepo(wrap func(repository.SuggestionRepository) repository.SuggestionRepository) fixtureOption {
	return func(f *fixture) { f.suggestions = wrap(f.suggestions) }
}

func withEventRepo(wrap func(repository.SuggestionEventRepository) repository.SuggestionEventRepository) fixtureOption {
	return func(f *fixture) { f.events = wrap(f.events) }
}

func withWorkoutRepo(wrap func(repository.WorkoutRepository) repository.WorkoutRepository) fixtureOption {
	return func(f *fixture) { f.workoutRepo = wrap(f.workoutRepo) }
}

func withLogger(log *logger.Logger) fixtureOption {
	return func(f *fixture) { f.log = log }
}

func withArchive(archive GenerationArchive) fixtureOption {
	return func(f *fixture) { f.archive = archive }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db))

	f := &fixture{
		clock:       &testClock{now: time.Date(2025, 5, 31, 9, 0, 0, 0, time.UTC)},
		gen:         &fixedGenerator{steps: fiveK()},
		suggestions: sqlite.NewSuggestionRepository(db),
		events:      sqlite.NewSuggestionEventRepository(db),
		types:       sqlite.NewTrainingTypeRepository(db),
		workoutRepo: sqlite.NewWorkoutRepository(db),
		log:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	svcOpts := []SuggestionOption{WithClock(f.clock.Now)}
	if f.archive != nil {
		svcOpts = append(svcOpts, WithArchive(f.archive))
	}
	f.workouts = NewWorkoutService(f.workoutRepo, f.log)
	f.svc = NewSuggestionService(f.suggestions, f.events, f.types, f.workouts, f.gen,
		policy.Default(), f.log, svcOpts...)
	return f
}

func (f *fixture) create(t *testing.T) *domain.Suggestion {
	t.Helper()
	s, err := f.svc.CreateSuggestion(context.Background(), testUser, CreateSuggestionInput{
		TrainingTypeCode: "tempo",
		PlannedDate:      testDate,
	})
	require.NoError(t, err)
	return s
}

var errInjected = errors.New("injected failure")

// failingMarkAccepted fails MarkAccepted with err and delegates everything else.
type failingMarkAccepted struct {
	repository.SuggestionRepository
	err error
}

func (r *failingMarkAccepted) MarkAccepted(context.Context, string, string, string, time.Time) error {
	return r.err
}

// failingUpdateStatus fails every UpdateStatus.
type failingUpdateStatus struct {
	repository.SuggestionRepository
}

func (r *failingUpdateStatus) UpdateStatus(context.Context, string, string, domain.SuggestionStatus, domain.SuggestionStatus, time.Time) error {
	return errInjected
}

// failingDelete fails every Delete.
type failingDelete struct {
	repository.WorkoutRepository
}

func (r *failingDelete) Delete(context.Context, string, string) error {
	return errInjected
}

// failingEvents fails every Create.
type failingEvents struct {
	repository.SuggestionEventRepository
}

func (r *failingEvents) Create(context.Context, *domain.SuggestionEvent) (string, error) {
	return "", errInjected
}

// recordingArchive remembers stored suggestion IDs.
type recordingArchive struct {
	mu     sync.Mutex
	stored []string
	err    error
}

func (a *recordingArchive) Store(_ context.Context, s *domain.Suggestion) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.stored = append(a.stored, s.ID)
	return nil
}

func (a *recordingArchive) DownloadURL(_ context.Context, s *domain.Suggestion) (string, error) {
	return "https://files.example/" + s.ID, nil
}
