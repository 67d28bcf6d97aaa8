package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mindloop/learncoach-backend/internal/config"
	"github.com/mindloop/learncoach-backend/internal/handlers"
	"github.com/mindloop/learncoach-backend/internal/middleware"
)

type RouterConfig struct {
	Config          *config.Config
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	CardHandler     *handlers.CardHandler
	SessionHandler  *handlers.SessionHandler
	StatsHandler    *handlers.StatsHandler
	LearningHandler *handlers.LearningHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("learncoach-backend"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.Static("/media", cfg.Config.MediaDir)

	api := router.Group("/api/v1")
	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)
	api.GET("/learning/providers", cfg.LearningHandler.Providers)

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Auth
	protected.POST("/auth/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	protected.GET("/auth/me", cfg.AuthHandler.GetMe)

	// Flashcards
	protected.POST("/flashcards", cfg.CardHandler.Create)
	protected.GET("/flashcards", cfg.CardHandler.List)
	protected.GET("/flashcards/due", cfg.CardHandler.Due)
	protected.GET("/flashcards/stats", cfg.CardHandler.Stats)
	protected.POST("/flashcards/from-session/:session_id", cfg.CardHandler.CreateFromSession)
	protected.GET("/flashcards/:id", cfg.CardHandler.Get)
	protected.POST("/flashcards/:id/review", cfg.CardHandler.Review)
	protected.DELETE("/flashcards/:id", cfg.CardHandler.Delete)

	// Learning sessions
	protected.POST("/sessions", cfg.SessionHandler.Create)
	protected.GET("/sessions", cfg.SessionHandler.List)
	protected.GET("/sessions/:id", cfg.SessionHandler.Get)

	// Statistics
	protected.GET("/statistics/overview", cfg.StatsHandler.Overview)
	protected.GET("/statistics/chart", cfg.StatsHandler.Chart)

	// Learning
	protected.POST("/learning/generate-question", cfg.LearningHandler.GenerateQuestion)
	protected.POST("/learning/evaluate-answer", cfg.LearningHandler.EvaluateAnswer)

	return router
}
