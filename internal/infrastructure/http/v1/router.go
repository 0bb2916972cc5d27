// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"inkpress/internal/domain/auth"
	"inkpress/internal/domain/post"
	"inkpress/internal/infrastructure/cache"
	"inkpress/internal/infrastructure/http/v1/handlers"
	"inkpress/internal/infrastructure/http/v1/middleware"
	"inkpress/internal/infrastructure/storage/postgres"
	"inkpress/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// DB is the managed database connection, used by readiness checks.
	DB *postgres.Manager

	// Logger for request logging.
	Logger *logger.Logger

	// TokenValidator for bearer token validation.
	TokenValidator middleware.TokenValidator

	// AuthService serves registration and login.
	AuthService *auth.Service

	// PostService serves the blog post endpoints.
	PostService *post.Service

	// AuditHistory is optional; when set, the admin-only post history
	// endpoint is registered.
	AuditHistory handlers.AuditHistory

	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *cache.RateLimiter

	// StrictRateLimiter is optional; applied to credential endpoints.
	StrictRateLimiter *cache.RateLimiter

	// Production switches 5xx message sanitization on.
	Production bool
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler(cfg.Production))
	if cfg.RateLimiter != nil {
		router.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	api := router.Group("/api/v1")
	{
		registerAuthRoutes(api, cfg)
		registerPostRoutes(api, cfg)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(cfg.AuthService)

	authGroup := rg.Group("/auth")
	if cfg.StrictRateLimiter != nil {
		authGroup.Use(middleware.RateLimit(cfg.StrictRateLimiter))
	}
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}
}

func registerPostRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	postHandler := handlers.NewPostHandler(cfg.PostService, cfg.AuditHistory)

	// Reads are public; a valid token additionally unlocks includeDeleted.
	posts := rg.Group("/posts")
	posts.Use(middleware.OptionalAuth(cfg.TokenValidator))
	{
		posts.GET("", postHandler.List)
		posts.GET("/:id", postHandler.Get)
	}

	protected := rg.Group("/posts")
	protected.Use(middleware.Auth(cfg.TokenValidator))
	{
		protected.POST("", postHandler.Create)
		protected.PUT("/:id", postHandler.Update)
		protected.DELETE("/:id", postHandler.Delete)
		protected.POST("/:id/restore", postHandler.Restore)

		if cfg.AuditHistory != nil {
			protected.GET("/:id/history", middleware.RequireRole(auth.RoleAdmin), postHandler.History)
		}
	}
}
