package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"docregistry/internal/auth"
	"docregistry/internal/config"
	"docregistry/internal/handler"
	"docregistry/internal/middleware"
	"docregistry/internal/repository/postgres"
	registrySvc "docregistry/internal/service/registry"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	// Logs go to stdout; LOG_DIR additionally mirrors them into rotated files
	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
	)

	// Admin directory and token verification
	admins, err := auth.LoadAdminDirectory(cfg.AdminFile)
	if err != nil {
		log.Fatalf("Failed to load admin directory: %v", err)
	}

	jwksVerifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, admins, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwksVerifier.Close()
	verifier := auth.NewCachingVerifier(jwksVerifier)

	// Apply schema migrations before taking traffic
	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Logger: logger,
	}
	registryRepo := postgres.NewRegistryRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)
	registryService := registrySvc.NewService(registryRepo, txManager, logger)

	registryHandler := handler.NewRegistryHandler(registryService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", registryHandler.HealthCheck)

	// Document routes. Reads are GET and never mutate; every mutation
	// requires an explicit write method.
	mux.HandleFunc("POST /api/documents", registryHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents", registryHandler.ListDocuments)
	mux.HandleFunc("PATCH /api/documents/{id}", registryHandler.RenameDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", registryHandler.DeleteDocument)
	mux.HandleFunc("POST /api/documents/{id}/restore", registryHandler.RestoreDocument)
	mux.HandleFunc("DELETE /api/documents/{id}/permanent", registryHandler.PermanentDeleteDocument)

	// Sharing routes
	mux.HandleFunc("POST /api/documents/{id}/shares", registryHandler.ShareDocument)
	mux.HandleFunc("DELETE /api/documents/{id}/shares/{username}", registryHandler.RevokeShare)

	// Room routes
	mux.HandleFunc("GET /api/documents/{id}/access", registryHandler.AccessDocument)
	mux.HandleFunc("POST /api/documents/{id}/rooms", registryHandler.GetOrCreateRoom)

	// Token generation
	mux.HandleFunc("GET /api/ids", registryHandler.GenerateID)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestID → Auth → Routes
	httpHandler = middleware.Auth(verifier)(httpHandler)
	httpHandler = middleware.RequestID(logger)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
