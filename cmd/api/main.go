package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aprilhs/copyforge/internal/api"
	"github.com/aprilhs/copyforge/internal/api/middleware"
	"github.com/aprilhs/copyforge/internal/config"
	"github.com/aprilhs/copyforge/internal/highlight"
	"github.com/aprilhs/copyforge/internal/job"
	"github.com/aprilhs/copyforge/internal/logger"
	"github.com/aprilhs/copyforge/internal/repository"
	"github.com/aprilhs/copyforge/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	log := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "copyforge",
		LogFile:     cfg.Log.File,
		MaxSizeMB:   100,
		MaxBackups:  3,
		MaxAgeDays:  28,
	})
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	exampleRepo := repository.NewExampleRepository(db)
	embCacheRepo := repository.NewEmbeddingCacheRepository(db)
	genCacheRepo := repository.NewGenerationCacheRepository(db)

	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Embedding.Dimensions,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Qdrant repository: %v", err)
	}
	defer qdrantRepo.Close()

	// Ensure Qdrant collection exists
	ctx := context.Background()
	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}

	// Initialize services
	embeddingService := service.NewEmbeddingService(&service.EmbeddingConfig{
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})

	generationService := service.NewGenerationService(&service.GenerationServiceConfig{
		Model:     cfg.Generation.Model,
		APIKey:    cfg.Generation.APIKey,
		BaseURL:   cfg.Generation.BaseURL,
		MaxTokens: cfg.Generation.MaxTokens,
	})

	retrievalService := service.NewRetrievalService(
		embeddingService,
		qdrantRepo,
		embCacheRepo,
		exampleRepo,
		&service.RetrievalConfig{
			TopK:           cfg.Retrieval.TopK,
			ScoreThreshold: cfg.Retrieval.ScoreThreshold,
			LRUSize:        cfg.Cache.EmbeddingLRUSize,
			LRUTTL:         cfg.Cache.EmbeddingLRUTTL,
		},
	)

	orchestrator := service.NewOrchestrator(generationService)
	annotator := highlight.NewAnnotator(highlight.NewLexiconClassifier())

	copyService := service.NewCopyService(
		genCacheRepo,
		retrievalService,
		orchestrator,
		annotator,
		cfg.Cache.GenerationTTL,
	)

	libraryService := service.NewLibraryService(exampleRepo, embCacheRepo, genCacheRepo)

	// Start the cache janitor
	scheduler := job.NewScheduler()
	if err := scheduler.Register(cfg.Cache.CleanupSchedule, job.NewGenerationCacheCleanupJob(genCacheRepo)); err != nil {
		log.Fatalf("Failed to register generation-cache cleanup: %v", err)
	}
	if err := scheduler.Register(cfg.Cache.CleanupSchedule, job.NewEmbeddingCacheCleanupJob(embCacheRepo, cfg.Cache.EmbeddingMaxAge)); err != nil {
		log.Fatalf("Failed to register embedding-cache cleanup: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	router := api.SetupRouter(copyService, libraryService, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting API server on port %d (mode=%s)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
