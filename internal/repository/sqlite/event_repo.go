package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/repository"
)

// sqliteEventRepository implements repository.SuggestionEventRepository
type sqliteEventRepository struct {
	db *sql.DB
}

// NewSuggestionEventRepository creates the append-only event store.
func NewSuggestionEventRepository(db *sql.DB) repository.SuggestionEventRepository {
	return &sqliteEventRepository{db: db}
}

func (r *sqliteEventRepository) Create(ctx context.Context, event *domain.SuggestionEvent) (string, error) {
	if event.SuggestionID == "" || event.UserID == "" || event.Kind == "" {
		return "", errors.New("event requires suggestionId, userId and kind")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	event.ID = repository.NewEventID(event.OccurredAt)
	metadata, err := marshalMap(event.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal event metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO suggestion_events(id, suggestion_id, user_id, kind, metadata_json, occurred_at)
		VALUES (?,?,?,?,?,?)`,
		event.ID, event.SuggestionID, event.UserID, string(event.Kind), metadata, formatTime(event.OccurredAt))
	if err != nil {
		return "", err
	}
	return event.ID, nil
}

// GetBySuggestionID lists a suggestion's events oldest first.
func (r *sqliteEventRepository) GetBySuggestionID(ctx context.Context, userID, suggestionID string) ([]domain.SuggestionEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, suggestion_id, user_id, kind, metadata_json, occurred_at
		FROM suggestion_events WHERE suggestion_id=? AND user_id=? ORDER BY id`, suggestionID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.SuggestionEvent{}
	for rows.Next() {
		var e domain.SuggestionEvent
		var kind, occurred string
		var metadata sql.NullString
		if err := rows.Scan(&e.ID, &e.SuggestionID, &e.UserID, &kind, &metadata, &occurred); err != nil {
			return nil, err
		}
		e.Kind = domain.EventKind(kind)
		if e.Metadata, err = unmarshalMap(metadata); err != nil {
			return nil, fmt.Errorf("event %s metadata: %w", e.ID, err)
		}
		if e.OccurredAt, err = parseTime(occurred); err != nil {
			return nil, fmt.Errorf("event %s occurred_at: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
