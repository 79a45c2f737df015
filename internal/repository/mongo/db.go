package mongo

import (
	"alcyxob/run-tracker/internal/domain"
	"alcyxob/run-tracker/internal/logger"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Separate, shorter deadline: the connect may succeed against an unresponsive server.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// Prepare creates every index and seeds the training type catalog.
// The workout unique indexes are required for correctness, so failures are returned.
func Prepare(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	var errs []error
	if err := EnsureWorkoutIndexes(ctx, db.Collection(workoutCollectionName), log); err != nil {
		errs = append(errs, err)
	}
	if err := EnsureSuggestionIndexes(ctx, db.Collection(suggestionCollectionName), log); err != nil {
		errs = append(errs, err)
	}
	if err := EnsureSuggestionEventIndexes(ctx, db.Collection(suggestionEventCollectionName), log); err != nil {
		errs = append(errs, err)
	}
	if err := SeedTrainingTypes(ctx, db.Collection(trainingTypeCollectionName), domain.DefaultTrainingTypes); err != nil {
		errs = append(errs, fmt.Errorf("seed training types: %w", err))
	}
	return errors.Join(errs...)
}
