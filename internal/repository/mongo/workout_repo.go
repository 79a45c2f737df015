// internal/repository/mongo/workout_repo.go
package mongo

import (
	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	workoutCollectionName = "workouts"

	// Index names are matched against duplicate key errors to tell the constraints apart.
	workoutPositionIndex   = "uq_workout_user_date_position"
	workoutSuggestionIndex = "uq_workout_suggestion"
)

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (string, error) {
	if workout.UserID == "" || workout.TrainingTypeCode == "" {
		return "", errors.New("workout requires userId and trainingTypeCode")
	}
	workout.ID = repository.NewID()
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = time.Now().UTC()
	}
	workout.UpdatedAt = workout.CreatedAt

	if _, err := r.collection.InsertOne(ctx, workout); err != nil {
		return "", duplicateKeyError(err)
	}
	return workout.ID, nil
}

// duplicateKeyError maps a violation of one of the workout unique indexes to its repository error.
// Any other error is returned unchanged.
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	switch msg := err.Error(); {
	case strings.Contains(msg, workoutSuggestionIndex):
		return repository.ErrSuggestionLinked
	case strings.Contains(msg, workoutPositionIndex):
		return repository.ErrPositionTaken
	}
	return err
}

// GetByID retrieves a single workout owned by userID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, userID, id string) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": id, "userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// UpdateStatus writes status, realized metrics and rating. Nil fields are unset.
func (r *mongoWorkoutRepository) UpdateStatus(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == "" {
		return errors.New("workout ID is required for update")
	}
	workout.UpdatedAt = time.Now().UTC()

	set := bson.M{"status": workout.Status, "updatedAt": workout.UpdatedAt}
	unset := bson.M{}
	optional := map[string]any{
		"distance":     workout.Distance,
		"duration":     workout.Duration,
		"avgHeartRate": workout.AvgHeartRate,
		"completedAt":  workout.CompletedAt,
		"rating":       workout.Rating,
	}
	for field, value := range optional {
		if isNilPointer(value) {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": workout.ID, "userId": workout.UserID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout owned by userID.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, userID, id string) error {
	if id == "" || userID == "" {
		return errors.New("workout ID and user ID are required for deletion")
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isNilPointer(v any) bool {
	switch p := v.(type) {
	case *int:
		return p == nil
	case *time.Time:
		return p == nil
	case *domain.Rating:
		return p == nil
	}
	return v == nil
}

// EnsureWorkoutIndexes creates the unique constraints the lifecycle relies on. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection, log *logger.Logger) error {
	indexes := []mongo.IndexModel{
		{
			// One workout per (user, date, position)
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "plannedDate", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(workoutPositionIndex),
		},
		{
			// A suggestion produces at most one workout
			Keys: bson.D{{Key: "suggestionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(workoutSuggestionIndex).
				SetPartialFilterExpression(bson.M{"suggestionId": bson.M{"$type": "string"}}),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn("failed to create indexes", "collection", collection.Name(), "error", err)
		return err
	}
	return nil
}
