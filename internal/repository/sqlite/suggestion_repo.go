package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/repository"
)

// sqliteSuggestionRepository implements repository.SuggestionRepository
type sqliteSuggestionRepository struct {
	db *sql.DB
}

// NewSuggestionRepository creates a new Suggestion repository backed by SQLite.
func NewSuggestionRepository(db *sql.DB) repository.SuggestionRepository {
	return &sqliteSuggestionRepository{db: db}
}

const suggestionColumns = `id, user_id, training_type_code, status, planned_date, steps_json, context_json,
	metadata_json, workout_id, created_at, updated_at`

// Create inserts a new suggestion. CreatedAt is kept when already set.
func (r *sqliteSuggestionRepository) Create(ctx context.Context, suggestion *domain.Suggestion) (string, error) {
	if suggestion.UserID == "" || suggestion.TrainingTypeCode == "" {
		return "", errors.New("suggestion requires userId and trainingTypeCode")
	}
	suggestion.ID = repository.NewID()
	if suggestion.CreatedAt.IsZero() {
		suggestion.CreatedAt = time.Now().UTC()
	}
	suggestion.UpdatedAt = suggestion.CreatedAt
	if suggestion.Steps == nil {
		suggestion.Steps = []domain.Step{}
	}

	steps, err := json.Marshal(suggestion.Steps)
	if err != nil {
		return "", fmt.Errorf("marshal steps: %w", err)
	}
	contextJSON, err := marshalMap(suggestion.Context)
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}
	metadataJSON, err := marshalMap(suggestion.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO suggestions(`+suggestionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		suggestion.ID, suggestion.UserID, suggestion.TrainingTypeCode, string(suggestion.Status),
		formatDate(suggestion.PlannedDate), string(steps), contextJSON, metadataJSON,
		nullableString(suggestion.WorkoutID), formatTime(suggestion.CreatedAt), formatTime(suggestion.UpdatedAt))
	if err != nil {
		return "", err
	}
	return suggestion.ID, nil
}

// GetByID retrieves a suggestion owned by userID.
func (r *sqliteSuggestionRepository) GetByID(ctx context.Context, userID, id string) (*domain.Suggestion, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+suggestionColumns+` FROM suggestions WHERE id=? AND user_id=?`, id, userID)

	var s domain.Suggestion
	var status, plannedDate, steps, created, updated string
	var contextJSON, metadataJSON, workoutID sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.TrainingTypeCode, &status, &plannedDate, &steps,
		&contextJSON, &metadataJSON, &workoutID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	s.Status = domain.SuggestionStatus(status)
	s.WorkoutID = stringPtr(workoutID)
	if s.PlannedDate, err = parseDate(plannedDate); err != nil {
		return nil, fmt.Errorf("suggestion %s planned_date: %w", s.ID, err)
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("suggestion %s created_at: %w", s.ID, err)
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("suggestion %s updated_at: %w", s.ID, err)
	}
	if err = json.Unmarshal([]byte(steps), &s.Steps); err != nil {
		return nil, fmt.Errorf("suggestion %s steps: %w", s.ID, err)
	}
	if s.Context, err = unmarshalMap(contextJSON); err != nil {
		return nil, fmt.Errorf("suggestion %s context: %w", s.ID, err)
	}
	if s.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, fmt.Errorf("suggestion %s metadata: %w", s.ID, err)
	}
	return &s, nil
}

// CountCreatedForDate counts suggestions for plannedDate created within [from, to).
func (r *sqliteSuggestionRepository) CountCreatedForDate(ctx context.Context, userID string, plannedDate, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suggestions
		WHERE user_id=? AND planned_date=? AND created_at>=? AND created_at<?`,
		userID, formatDate(plannedDate), formatTime(from), formatTime(to)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// MarkAccepted links the workout and sets status accepted if the suggestion is still shown and unlinked.
func (r *sqliteSuggestionRepository) MarkAccepted(ctx context.Context, userID, id, workoutID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE suggestions SET status=?, workout_id=?, updated_at=?
		WHERE id=? AND user_id=? AND status=? AND workout_id IS NULL`,
		string(domain.SuggestionAccepted), workoutID, formatTime(at), id, userID, string(domain.SuggestionShown))
	if err != nil {
		return err
	}
	return r.checkConditional(ctx, res, userID, id)
}

// UpdateStatus moves the suggestion from one status to another.
func (r *sqliteSuggestionRepository) UpdateStatus(ctx context.Context, userID, id string, from, to domain.SuggestionStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE suggestions SET status=?, updated_at=? WHERE id=? AND user_id=? AND status=?`,
		string(to), formatTime(at), id, userID, string(from))
	if err != nil {
		return err
	}
	return r.checkConditional(ctx, res, userID, id)
}

// checkConditional tells a missing row (ErrNotFound) from a failed precondition (ErrStateChanged).
func (r *sqliteSuggestionRepository) checkConditional(ctx context.Context, res sql.Result, userID, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM suggestions WHERE id=? AND user_id=?`, id, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return repository.ErrStateChanged
}
