package main

import (
	"alcyxob/run-tracker/internal/api"
	"alcyxob/run-tracker/internal/config"
	"alcyxob/run-tracker/internal/generator"
	"alcyxob/run-tracker/internal/logger"
	"alcyxob/run-tracker/internal/policy"
	"alcyxob/run-tracker/internal/repository"
	"alcyxob/run-tracker/internal/repository/mongo"
	"alcyxob/run-tracker/internal/repository/sqlite"
	"alcyxob/run-tracker/internal/service"
	"alcyxob/run-tracker/internal/storage"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// repositories is the set of stores the services need, whichever driver backs them.
type repositories struct {
	workouts      repository.WorkoutRepository
	suggestions   repository.SuggestionRepository
	events        repository.SuggestionEventRepository
	trainingTypes repository.TrainingTypeRepository
	close         func() error
}

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer appLog.Sync()
	appLog.Info("Starting run tracker server", "driver", cfg.Database.Driver, "address", cfg.Server.Address)

	if cfg.JWT.Secret == "" {
		appLog.Fatal("jwt.secret is not configured")
	}

	// --- Database Connection ---
	repos, err := openRepositories(cfg.Database, appLog)
	if err != nil {
		appLog.Fatal("Could not open database", "error", err)
	}
	defer func() {
		if err := repos.close(); err != nil {
			appLog.Error("Failed to close database", "error", err)
		}
	}()

	// --- Initialize Storage ---
	var opts []service.SuggestionOption
	if cfg.S3.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		fileStorage, err := storage.NewS3Storage(ctx, cfg.S3, appLog)
		cancel()
		if err != nil {
			appLog.Fatal("Failed to initialize S3 storage", "error", err)
		}
		opts = append(opts, service.WithArchive(storage.NewGenerationArchive(fileStorage)))
	}

	// --- Initialize Services ---
	limits := policy.Limits{
		DailySuggestionLimit: cfg.Suggestions.DailyLimit,
		SuggestionTTL:        cfg.Suggestions.Expiry,
	}.Normalize()
	workoutService := service.NewWorkoutService(repos.workouts, appLog)
	suggestionService := service.NewSuggestionService(
		repos.suggestions,
		repos.events,
		repos.trainingTypes,
		workoutService,
		generator.NewTemplate(),
		limits,
		appLog,
		opts...,
	)

	// --- Initialize Gin Engine ---
	if strings.EqualFold(cfg.Log.Mode, "prod") || strings.EqualFold(cfg.Log.Mode, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(appLog))
	api.SetupRoutes(router, cfg.JWT.Secret, suggestionService, workoutService, limits, appLog)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		appLog.Info("Server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("ListenAndServe error", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		appLog.Error("Server forced to shutdown", "error", err)
	}
	appLog.Info("Server exiting.")
}

// openRepositories connects the configured driver and prepares its schema.
func openRepositories(cfg config.DatabaseConfig, appLog *logger.Logger) (*repositories, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		appLog.Info("SQLite database ready", "path", cfg.Path)
		return &repositories{
			workouts:      sqlite.NewWorkoutRepository(db),
			suggestions:   sqlite.NewSuggestionRepository(db),
			events:        sqlite.NewSuggestionEventRepository(db),
			trainingTypes: sqlite.NewTrainingTypeRepository(db),
			close:         db.Close,
		}, nil

	case "mongo":
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, err
		}
		appDB := client.Database(cfg.Name)
		// Unique indexes back the acceptance invariants, so they must exist before serving.
		if err := mongo.Prepare(ctx, appDB, appLog); err != nil {
			_ = mongo.DisconnectDB(client)
			return nil, fmt.Errorf("prepare indexes: %w", err)
		}
		appLog.Info("MongoDB ready", "database", cfg.Name)
		return &repositories{
			workouts:      mongo.NewMongoWorkoutRepository(appDB),
			suggestions:   mongo.NewMongoSuggestionRepository(appDB),
			events:        mongo.NewMongoSuggestionEventRepository(appDB),
			trainingTypes: mongo.NewMongoTrainingTypeRepository(appDB),
			close:         func() error { return mongo.DisconnectDB(client) },
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
