// Package main is the entry point for the inkpress API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkpress/internal/domain/auth"
	"inkpress/internal/domain/post"
	"inkpress/internal/infrastructure/cache"
	v1 "inkpress/internal/infrastructure/http/v1"
	"inkpress/internal/infrastructure/storage/postgres"
	"inkpress/internal/infrastructure/storage/postgres/auth_repo"
	"inkpress/internal/infrastructure/storage/postgres/post_repo"
	"inkpress/pkg/logger"
)

func main() {
	env := getEnv("APP_ENV", "development")
	if env != "development" && env != "test" && env != "production" {
		fmt.Printf("invalid APP_ENV %q: must be development, test or production\n", env)
		os.Exit(1)
	}
	production := env == "production"

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: !production,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting inkpress server", "env", env)

	// --- Database ---
	db := postgres.NewManager(
		postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")),
		func(s postgres.State) {
			log.Infow("database state changed", "state", s.String())
		},
	)
	if err := db.Connect(ctx); err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	txManager := postgres.NewTxManager(db)

	// --- Audit log ---
	auditLog, err := postgres.NewAuditLog(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit log", "error", err)
	}

	// --- Services ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	if production && jwtSecret == "your-secret-key-change-in-production" {
		log.Fatal("JWT_SECRET must be set in production")
	}
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		jwtService,
		auth.DefaultServiceConfig(),
	)

	postService := post.NewService(post_repo.NewPostRepo(txManager), auditLog)

	// --- Rate limiting (optional) ---
	var limiter, strictLimiter *cache.RateLimiter
	if redisAddr := getEnv("REDIS_ADDR", ""); redisAddr != "" {
		redisClient := cache.NewRedisClient(redisAddr, getEnv("REDIS_PASSWORD", ""), getEnvInt("REDIS_DB", 0))
		defer redisClient.Close()

		limiter = cache.NewRateLimiter(redisClient, cache.DefaultLimiterConfig())
		strictLimiter = cache.NewRateLimiter(redisClient, cache.StrictLimiterConfig())
		log.Infow("rate limiting enabled", "addr", redisAddr)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		DB:                db,
		Logger:            log,
		TokenValidator:    jwtService,
		AuthService:       authService,
		PostService:       postService,
		AuditHistory:      auditLog,
		RateLimiter:       limiter,
		StrictRateLimiter: strictLimiter,
		Production:        production,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
