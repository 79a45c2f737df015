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

const suggestionCollectionName = "suggestions"

// mongoSuggestionRepository implements repository.SuggestionRepository
type mongoSuggestionRepository struct {
	collection *mongo.Collection
}

// NewMongoSuggestionRepository creates a new Suggestion repository backed by MongoDB.
func NewMongoSuggestionRepository(db *mongo.Database) repository.SuggestionRepository {
	return &mongoSuggestionRepository{
		collection: db.Collection(suggestionCollectionName),
	}
}

// Create inserts a new suggestion.
func (r *mongoSuggestionRepository) Create(ctx context.Context, suggestion *domain.Suggestion) (string, error) {
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

	if _, err := r.collection.InsertOne(ctx, suggestion); err != nil {
		return "", err
	}
	return suggestion.ID, nil
}

// GetByID retrieves a suggestion owned by userID.
func (r *mongoSuggestionRepository) GetByID(ctx context.Context, userID, id string) (*domain.Suggestion, error) {
	var suggestion domain.Suggestion
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&suggestion)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &suggestion, nil
}

// CountCreatedForDate counts suggestions for plannedDate created within [from, to).
func (r *mongoSuggestionRepository) CountCreatedForDate(ctx context.Context, userID string, plannedDate, from, to time.Time) (int, error) {
	filter := bson.M{
		"userId":      userID,
		"plannedDate": plannedDate.UTC(),
		"createdAt":   bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// MarkAccepted links the workout and sets status accepted if the suggestion is still shown and unlinked.
func (r *mongoSuggestionRepository) MarkAccepted(ctx context.Context, userID, id, workoutID string, at time.Time) error {
	filter := bson.M{
		"_id":       id,
		"userId":    userID,
		"status":    domain.SuggestionShown,
		"workoutId": nil, // Matches both missing and null
	}
	update := bson.M{"$set": bson.M{
		"status":    domain.SuggestionAccepted,
		"workoutId": workoutID,
		"updatedAt": at.UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	return r.checkConditional(ctx, result, userID, id)
}

// UpdateStatus moves the suggestion from one status to another.
func (r *mongoSuggestionRepository) UpdateStatus(ctx context.Context, userID, id string, from, to domain.SuggestionStatus, at time.Time) error {
	filter := bson.M{"_id": id, "userId": userID, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": at.UTC()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	return r.checkConditional(ctx, result, userID, id)
}

// checkConditional tells a missing document (ErrNotFound) from a failed precondition (ErrStateChanged).
func (r *mongoSuggestionRepository) checkConditional(ctx context.Context, result *mongo.UpdateResult, userID, id string) error {
	if result.MatchedCount > 0 {
		return nil
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStateChanged
}

// EnsureSuggestionIndexes creates the indexes used by the quota check and lookups.
func EnsureSuggestionIndexes(ctx context.Context, collection *mongo.Collection, log *logger.Logger) error {
	indexes := []mongo.IndexModel{
		{
			// Daily quota count
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "plannedDate", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn("failed to create indexes", "collection", collection.Name(), "error", err)
		return err
	}
	return nil
}
