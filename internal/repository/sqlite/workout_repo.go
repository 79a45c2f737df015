package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/repository"
)

// sqliteWorkoutRepository implements repository.WorkoutRepository
type sqliteWorkoutRepository struct {
	db *sql.DB
}

// NewWorkoutRepository creates a new Workout repository backed by SQLite.
func NewWorkoutRepository(db *sql.DB) repository.WorkoutRepository {
	return &sqliteWorkoutRepository{db: db}
}

const workoutColumns = `id, user_id, training_type_code, planned_date, position, planned_distance, planned_duration,
	status, origin, distance, duration, avg_heart_rate, completed_at, rating, suggestion_id, created_at, updated_at`

// Create inserts a new workout.
func (r *sqliteWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (string, error) {
	if workout.UserID == "" || workout.TrainingTypeCode == "" {
		return "", errors.New("workout requires userId and trainingTypeCode")
	}
	workout.ID = repository.NewID()
	now := time.Now().UTC()
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = now
	}
	workout.UpdatedAt = workout.CreatedAt

	var rating any
	if workout.Rating != nil {
		rating = string(*workout.Rating)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO workouts(`+workoutColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		workout.ID, workout.UserID, workout.TrainingTypeCode, formatDate(workout.PlannedDate), workout.Position,
		nullableInt(workout.PlannedDistance), nullableInt(workout.PlannedDuration),
		string(workout.Status), string(workout.Origin),
		nullableInt(workout.Distance), nullableInt(workout.Duration), nullableInt(workout.AvgHeartRate),
		nullableTime(workout.CompletedAt), rating, nullableString(workout.SuggestionID),
		formatTime(workout.CreatedAt), formatTime(workout.UpdatedAt))
	if err != nil {
		if msg, ok := isUniqueViolation(err); ok {
			if strings.Contains(msg, "workouts.suggestion_id") {
				return "", repository.ErrSuggestionLinked
			}
			if strings.Contains(msg, "workouts.position") {
				return "", repository.ErrPositionTaken
			}
		}
		return "", err
	}
	return workout.ID, nil
}

// GetByID retrieves a workout owned by userID.
func (r *sqliteWorkoutRepository) GetByID(ctx context.Context, userID, id string) (*domain.Workout, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE id=? AND user_id=?`, id, userID)
	workout, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return workout, nil
}

// UpdateStatus writes status, realized metrics and rating.
func (r *sqliteWorkoutRepository) UpdateStatus(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == "" {
		return errors.New("workout ID is required for update")
	}
	workout.UpdatedAt = time.Now().UTC()
	var rating any
	if workout.Rating != nil {
		rating = string(*workout.Rating)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE workouts SET status=?, distance=?, duration=?, avg_heart_rate=?,
		completed_at=?, rating=?, updated_at=? WHERE id=? AND user_id=?`,
		string(workout.Status), nullableInt(workout.Distance), nullableInt(workout.Duration),
		nullableInt(workout.AvgHeartRate), nullableTime(workout.CompletedAt), rating,
		formatTime(workout.UpdatedAt), workout.ID, workout.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout owned by userID.
func (r *sqliteWorkoutRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workouts WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanWorkout(row *sql.Row) (*domain.Workout, error) {
	var w domain.Workout
	var plannedDate, status, origin, created, updated string
	var plannedDistance, plannedDuration, distance, duration, avgHR sql.NullInt64
	var completedAt, rating, suggestionID sql.NullString
	err := row.Scan(&w.ID, &w.UserID, &w.TrainingTypeCode, &plannedDate, &w.Position,
		&plannedDistance, &plannedDuration, &status, &origin,
		&distance, &duration, &avgHR, &completedAt, &rating, &suggestionID, &created, &updated)
	if err != nil {
		return nil, err
	}
	if w.PlannedDate, err = parseDate(plannedDate); err != nil {
		return nil, fmt.Errorf("workout %s planned_date: %w", w.ID, err)
	}
	if w.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("workout %s created_at: %w", w.ID, err)
	}
	if w.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("workout %s updated_at: %w", w.ID, err)
	}
	w.Status = domain.WorkoutStatus(status)
	w.Origin = domain.WorkoutOrigin(origin)
	w.PlannedDistance = intPtr(plannedDistance)
	w.PlannedDuration = intPtr(plannedDuration)
	w.Distance = intPtr(distance)
	w.Duration = intPtr(duration)
	w.AvgHeartRate = intPtr(avgHR)
	w.SuggestionID = stringPtr(suggestionID)
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("workout %s completed_at: %w", w.ID, err)
		}
		w.CompletedAt = &t
	}
	if rating.Valid {
		rt := domain.Rating(rating.String)
		w.Rating = &rt
	}
	return &w, nil
}
