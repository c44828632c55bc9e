package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"docregistry/internal/config"
	"docregistry/internal/domain"
	"docregistry/internal/domain/models"
	"docregistry/internal/domain/services"
	"docregistry/internal/repository/postgres"
	registrySvc "docregistry/internal/service/registry"
)

// Seeds a deterministic set of demo documents for dev environments. All
// writes go through the service layer, so the seeded state satisfies the
// same invariants as live traffic.
func main() {
	owner := flag.String("owner", "demo-user", "username that owns the seeded documents")
	unique := flag.Bool("unique", false, "suffix document ids with a random tag so reseeding never conflicts")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: demo data has no business in production
	if cfg.Environment == "prod" {
		log.Fatalf("Refusing to seed demo data in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewRegistryRepository(&postgres.RepositoryConfig{Pool: pool, Logger: logger})
	txManager := postgres.NewTransactionManager(pool)
	service := registrySvc.NewService(repo, txManager, logger)

	caller := models.Identity{Username: *owner}

	suffix := ""
	if *unique {
		suffix = "-" + uuid.NewString()[:8]
	}

	seeds := []services.CreateDocumentRequest{
		{ID: "welcome" + suffix, Tag: "text", Title: "Welcome"},
		{ID: "roadmap" + suffix, Tag: "text", Title: "Roadmap", Version: "draft"},
		{ID: "whiteboard" + suffix, Tag: "board", Title: "Team Whiteboard"},
	}

	for _, req := range seeds {
		doc, err := service.Create(ctx, caller, &req)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				log.Printf("skipping %s: already seeded", req.ID)
				continue
			}
			log.Fatalf("Failed to seed document %s: %v", req.ID, err)
		}
		log.Printf("seeded document %s (versions %v)", doc.ID, doc.Versions)
	}

	// A share grant so the sharing paths have data to show
	if _, err := service.Share(ctx, caller, "welcome"+suffix, &services.ShareRequest{
		Username:    "demo-guest",
		Permissions: []string{models.PermissionRead},
	}); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Fatalf("Failed to seed share grant: %v", err)
	}

	log.Println("seeding complete")
}
