package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"canopy/internal/config"
	"canopy/internal/handler"
	"canopy/internal/middleware"
	"canopy/internal/repository/postgres"
	"canopy/internal/service"
	"canopy/internal/service/textgen"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.MaxLogFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
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
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	logger.Info("database connected", "items_table", tables.Items)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	itemRepo := postgres.NewItemRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Setup text generation
	generator, err := textgen.SetupGenerator(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup text generation: %v", err)
	}
	prompts, err := textgen.NewPromptRegistry()
	if err != nil {
		log.Fatalf("Failed to load prompt registry: %v", err)
	}

	// Create services
	hierarchyService := service.NewHierarchyService(itemRepo, txManager, logger)
	processingService := service.NewProcessingService(itemRepo, generator, prompts, logger)

	// Create handlers
	itemHandler := handler.NewItemHandler(hierarchyService, logger)
	folderHandler := handler.NewFolderHandler(hierarchyService, logger)
	processHandler := handler.NewProcessHandler(processingService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", itemHandler.HealthCheck)

	// Item routes
	mux.HandleFunc("GET /items", itemHandler.ListItems)
	mux.HandleFunc("GET /items/roots", itemHandler.ListRoots) // Must come before {id} route
	mux.HandleFunc("GET /items/{id}", itemHandler.GetItem)
	mux.HandleFunc("GET /items/{id}/children", itemHandler.ListChildren)
	mux.HandleFunc("GET /items/{id}/tree", itemHandler.GetSubtree)
	mux.HandleFunc("POST /items", itemHandler.CreateNote)
	mux.HandleFunc("PATCH /items/{id}", itemHandler.UpdateNote)
	mux.HandleFunc("DELETE /items/{id}", itemHandler.DeleteItem)

	// Folder routes
	mux.HandleFunc("POST /folders", folderHandler.CreateFolder)
	mux.HandleFunc("PATCH /folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /folders/{id}", folderHandler.DeleteFolder)
	mux.HandleFunc("POST /folders/{id}/move", folderHandler.MoveItem)

	// Nested forest derivation
	mux.HandleFunc("GET /tree", itemHandler.GetForest)

	// Processing routes
	mux.HandleFunc("POST /items/{id}/process", processHandler.Process)
	mux.HandleFunc("POST /items/{id}/retry", processHandler.Retry)
	mux.HandleFunc("GET /items/{id}/status", processHandler.GetStatus)

	// Build middleware chain (applied in reverse order, they wrap each other)
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)
	root = middleware.RequestLog(logger)(root)

	// CORS - outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// Generation requests block for the whole collaborator call, so the
		// write timeout has to cover the slowest expected run.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Serve until interrupted, then drain
	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	case <-shutdownCtx.Done():
		logger.Info("shutting down")
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}
