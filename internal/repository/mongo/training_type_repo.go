package mongo

import (
	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trainingTypeCollectionName = "training_types"

type mongoTrainingTypeRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingTypeRepository reads the training type catalog.
func NewMongoTrainingTypeRepository(db *mongo.Database) repository.TrainingTypeRepository {
	return &mongoTrainingTypeRepository{
		collection: db.Collection(trainingTypeCollectionName),
	}
}

func (r *mongoTrainingTypeRepository) GetByCode(ctx context.Context, code string) (*domain.TrainingType, error) {
	var tt domain.TrainingType
	err := r.collection.FindOne(ctx, bson.M{"_id": code}).Decode(&tt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tt, nil
}

// SeedTrainingTypes inserts the default catalog without touching existing entries,
// so types retired by an operator stay retired.
func SeedTrainingTypes(ctx context.Context, collection *mongo.Collection, types []domain.TrainingType) error {
	for _, tt := range types {
		_, err := collection.UpdateOne(ctx,
			bson.M{"_id": tt.Code},
			bson.M{"$setOnInsert": bson.M{"name": tt.Name, "active": tt.Active}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
