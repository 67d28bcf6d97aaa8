package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mindloop/learncoach-backend/internal/config"
	"github.com/mindloop/learncoach-backend/internal/db"
	"github.com/mindloop/learncoach-backend/internal/handlers"
	"github.com/mindloop/learncoach-backend/internal/logger"
	"github.com/mindloop/learncoach-backend/internal/middleware"
	"github.com/mindloop/learncoach-backend/internal/observability"
	"github.com/mindloop/learncoach-backend/internal/server"
	"github.com/mindloop/learncoach-backend/internal/services"

	"github.com/mindloop/learncoach-backend/internal/repos"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "learncoach-backend",
		Environment: cfg.LogMode,
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Database
	dbService, err := db.NewDatabaseService(cfg, log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err = dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Database auto migration failed", "error", err)
	}
	theDB := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	userTokenRepo := repos.NewUserTokenRepo(theDB, log)
	cardRepo := repos.NewCardRepo(theDB, log)
	reviewEventRepo := repos.NewReviewEventRepo(theDB, log)
	sessionRepo := repos.NewSessionRepo(theDB, log)
	userStatsRepo := repos.NewUserStatisticsRepo(theDB, log)

	// Services
	log.Info("Setting up Services from main...")
	var avatarService services.AvatarService
	if cfg.AvatarFontPath != "" {
		avatarService, err = services.NewAvatarService(log, cfg.MediaDir, cfg.AvatarFontPath)
		if err != nil {
			log.Warn("Could not init AvatarService", "error", err)
			avatarService = nil
		}
	}
	authService := services.NewAuthService(
		theDB,
		log,
		userRepo,
		userTokenRepo,
		avatarService,
		cfg.JWTSecretKey,
		time.Duration(cfg.AccessTokenTTL)*time.Second,
		time.Duration(cfg.RefreshTokenTTL)*time.Second,
	)
	userService := services.NewUserService(theDB, log, userRepo)
	cardService := services.NewCardService(theDB, log, cardRepo, reviewEventRepo, sessionRepo, userStatsRepo)
	sessionService := services.NewSessionService(theDB, log, sessionRepo, userStatsRepo)
	statsService := services.NewStatsService(theDB, log, sessionRepo, userStatsRepo)
	llmClient := services.NewLLMClient(log)
	learningService := services.NewLearningService(llmClient, log)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService, userService)
	cardHandler := handlers.NewCardHandler(cardService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	statsHandler := handlers.NewStatsHandler(statsService)
	learningHandler := handlers.NewLearningHandler(learningService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Config:          cfg,
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		CardHandler:     cardHandler,
		SessionHandler:  sessionHandler,
		StatsHandler:    statsHandler,
		LearningHandler: learningHandler,
	})

	log.Info("Starting server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
