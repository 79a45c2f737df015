package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/repository"
)

type sqliteTrainingTypeRepository struct {
	db *sql.DB
}

// NewTrainingTypeRepository reads the catalog seeded by the initial migration.
func NewTrainingTypeRepository(db *sql.DB) repository.TrainingTypeRepository {
	return &sqliteTrainingTypeRepository{db: db}
}

func (r *sqliteTrainingTypeRepository) GetByCode(ctx context.Context, code string) (*domain.TrainingType, error) {
	var tt domain.TrainingType
	err := r.db.QueryRowContext(ctx, `SELECT code, name, active FROM training_types WHERE code=?`, code).
		Scan(&tt.Code, &tt.Name, &tt.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tt, nil
}
