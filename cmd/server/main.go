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

	"arbor/internal/config"
	"arbor/internal/dataset"
	"arbor/internal/handler"
	"arbor/internal/middleware"
	"arbor/internal/repository/postgres"
	serviceKnow "arbor/internal/service/knowledge"
	serviceRetr "arbor/internal/service/retrieval"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
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

	var logWriter io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logWriter = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"dataset_store", cfg.DatasetStoreURL,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	nodeRepo := postgres.NewTreeNodeRepository(repoConfig)
	workflowRepo := postgres.NewWorkflowRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Dataset store client (also serves as the document stats provider)
	kindRegistry, err := dataset.NewKindRegistry()
	if err != nil {
		log.Fatalf("Failed to load dataset kind registry: %v", err)
	}
	datasetClient := dataset.NewClient(cfg.DatasetStoreURL, cfg.DatasetStoreAPIKey, kindRegistry)

	// Create services
	treeService := serviceKnow.NewTreeService(nodeRepo, logger)
	statisticsService := serviceKnow.NewStatisticsService(nodeRepo, datasetClient, txManager, logger)
	nodeService := serviceKnow.NewNodeService(nodeRepo, treeService, statisticsService, datasetClient, logger)
	auditService := serviceRetr.NewAuditService(workflowRepo, logger)

	// Create handlers
	nodeHandler := handler.NewNodeHandler(nodeService, logger)
	treeHandler := handler.NewTreeHandler(treeService, statisticsService, logger)
	retrievalHandler := handler.NewRetrievalHandler(auditService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", nodeHandler.HealthCheck)

	// Node lifecycle routes
	mux.HandleFunc("POST /api/nodes", nodeHandler.CreateNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", nodeHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", nodeHandler.DeleteNode)
	mux.HandleFunc("POST /api/nodes/delete", nodeHandler.DeleteNodes)

	// Tree view routes
	mux.HandleFunc("GET /api/tree", treeHandler.GetTree)
	mux.HandleFunc("GET /api/tree/statistic", treeHandler.GetTreeStatistic)
	mux.HandleFunc("GET /api/tree/{id}/statistic", treeHandler.GetTreeStatistic)
	mux.HandleFunc("POST /api/statistics/refresh", treeHandler.RefreshStatistics)

	// Retrieval audit routes
	mux.HandleFunc("POST /api/retrieval/runs", retrievalHandler.PersistRun)
	mux.HandleFunc("GET /api/retrieval/runs/{id}/chunks", retrievalHandler.GetRunChunks)

	// Build middleware chain (applied in reverse order)
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
