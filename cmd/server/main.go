package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ironlog/fitness-app/internal/analysis"
	"ironlog/fitness-app/internal/api"
	"ironlog/fitness-app/internal/config"
	"ironlog/fitness-app/internal/logging"
	"ironlog/fitness-app/internal/repository/mongo"
	"ironlog/fitness-app/internal/service"
	"ironlog/fitness-app/internal/storage"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		os.Stderr.WriteString("FATAL: could not load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	logger.Info().Str("address", cfg.Server.Address).Msg("starting server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		logger.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// --- Ensure Indexes ---
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("programs"))
		mongo.EnsureOngoingWorkoutIndexes(ctx, appDB.Collection("ongoing_workouts"))
		mongo.EnsureWorkoutLogIndexes(ctx, appDB)
		logger.Info().Msg("index creation process completed")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize S3 storage")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	ongoingRepo := mongo.NewMongoOngoingWorkoutRepository(appDB)
	logRepo := mongo.NewMongoWorkoutLogRepository(dbClient, appDB)

	// --- Post-workout analysis pipeline ---
	dispatcher := analysis.NewDispatcher(analysis.NoopAnalyzer{}, cfg.Analysis.QueueSize, cfg.Analysis.Workers, logger)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	programService := service.NewProgramService(programRepo, logger)
	loggingService := service.NewLoggingService(logRepo, programRepo, dispatcher, logger)
	workoutService := service.NewWorkoutService(ongoingRepo, programRepo, loggingService, logger)
	historyService := service.NewHistoryService(logRepo)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	rateLimit := api.RateLimitMiddleware(api.NewMemoryRateLimitStore(), cfg.RateLimit.RequestsPerMinute)

	api.SetupRoutes(router, cfg.JWT.Secret, rateLimit,
		authService, programService, workoutService, loggingService, historyService, fileStorage)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()
	logger.Info().Str("address", cfg.Server.Address).Msg("server listening")

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exiting")
}
