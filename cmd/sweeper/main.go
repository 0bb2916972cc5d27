// Package main permanently removes posts whose soft deletion is older than
// the retention window. Intended to run on a schedule (cron or similar).
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"inkpress/internal/domain/post"
	"inkpress/internal/infrastructure/storage/postgres"
	"inkpress/internal/infrastructure/storage/postgres/post_repo"
	"inkpress/pkg/logger"
)

// defaultRetentionDays is how long soft-deleted posts stay recoverable.
const defaultRetentionDays = 30

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: false})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	days := defaultRetentionDays
	if raw := os.Getenv("PURGE_RETENTION_DAYS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			log.Fatalw("PURGE_RETENTION_DAYS must be a positive integer", "value", raw)
		}
		days = n
	}

	db := postgres.NewManager(postgres.DefaultPoolConfig(dsn))
	if err := db.Connect(ctx); err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	service := post.NewService(post_repo.NewPostRepo(postgres.NewTxManager(db)), nil)

	count, err := service.Purge(ctx, days)
	if err != nil {
		log.Fatalw("purge failed", "error", err)
	}

	log.Infow("purge completed", "removed", count, "retention_days", days)
}
