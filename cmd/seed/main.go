// Package main applies the database schema and inserts demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/bcrypt"

	"inkpress/internal/core/id"
	"inkpress/internal/domain/auth"
	"inkpress/internal/domain/post"
	"inkpress/internal/infrastructure/storage/postgres"
	"inkpress/internal/infrastructure/storage/postgres/auth_repo"
	"inkpress/internal/infrastructure/storage/postgres/post_repo"
	"inkpress/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db := postgres.NewManager(postgres.DefaultPoolConfig(dsn))
	if err := db.Connect(ctx); err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	migrationsDir := "migrations"
	if len(os.Args) > 1 {
		migrationsDir = os.Args[1]
	}
	if err := applySchema(ctx, db, migrationsDir); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	txManager := postgres.NewTxManager(db)
	if err := seedDemoData(ctx, txManager); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	log.Info("demo data seeded")
}

func applySchema(ctx context.Context, db *postgres.Manager, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migration files in %s", dir)
	}

	for _, f := range files {
		sql, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := db.Pool().Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
	}
	return nil
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager) error {
	userRepo := auth_repo.NewUserRepo(txManager)
	postRepo := post_repo.NewPostRepo(txManager)

	demoEmail := "demo@example.com"

	exists, err := userRepo.ExistsByEmail(ctx, demoEmail)
	if err != nil {
		return err
	}
	if exists {
		// Idempotent: second run leaves existing data alone.
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	demoUser := &auth.User{
		ID:           id.New(),
		Name:         "Demo Author",
		Email:        demoEmail,
		PasswordHash: string(hash),
		Role:         auth.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := userRepo.Create(ctx, demoUser); err != nil {
		return err
	}

	samples := []struct {
		title   string
		content string
		status  post.Status
	}{
		{"Welcome to inkpress", "This is the first post. Edit or delete it to get started.", post.StatusPublished},
		{"Drafting ideas", "Unfinished thoughts live here until they are ready.", post.StatusDraft},
		{"Archived notes", "Older material kept around for reference.", post.StatusArchived},
	}

	for _, s := range samples {
		p := post.New(s.title, s.content, demoUser.ID.String())
		p.Status = s.status
		if err := postRepo.Create(ctx, p); err != nil {
			return err
		}
	}

	return nil
}
