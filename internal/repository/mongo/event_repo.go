package mongo

import (
	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const suggestionEventCollectionName = "suggestion_events"

// mongoEventRepository implements repository.SuggestionEventRepository
type mongoEventRepository struct {
	collection *mongo.Collection
}

// NewMongoSuggestionEventRepository creates the append-only event store.
func NewMongoSuggestionEventRepository(db *mongo.Database) repository.SuggestionEventRepository {
	return &mongoEventRepository{
		collection: db.Collection(suggestionEventCollectionName),
	}
}

func (r *mongoEventRepository) Create(ctx context.Context, event *domain.SuggestionEvent) (string, error) {
	if event.SuggestionID == "" || event.UserID == "" || event.Kind == "" {
		return "", errors.New("event requires suggestionId, userId and kind")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	event.ID = repository.NewEventID(event.OccurredAt)
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return "", err
	}
	return event.ID, nil
}

// GetBySuggestionID lists a suggestion's events oldest first.
func (r *mongoEventRepository) GetBySuggestionID(ctx context.Context, userID, suggestionID string) ([]domain.SuggestionEvent, error) {
	events := []domain.SuggestionEvent{}
	filter := bson.M{"suggestionId": suggestionID, "userId": userID}
	// ULIDs sort by occurrence
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EnsureSuggestionEventIndexes creates the lookup index for the audit trail.
func EnsureSuggestionEventIndexes(ctx context.Context, collection *mongo.Collection, log *logger.Logger) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "suggestionId", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn("failed to create indexes", "collection", collection.Name(), "error", err)
		return err
	}
	return nil
}
