package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"supplymatch/internal/api"
	"supplymatch/internal/api/handlers"
	"supplymatch/internal/embedding"
	"supplymatch/internal/filereader"
	"supplymatch/internal/normalizer"
	"supplymatch/internal/repository"
	"supplymatch/internal/service"
	"supplymatch/internal/vectorindex"
	"supplymatch/pkg/config"
	"supplymatch/pkg/logger"
	"supplymatch/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting supplymatch service")

	ctx := context.Background()

	catalogRepo, err := newCatalogRepository(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize catalog repository", zap.Error(err))
	}

	index, err := vectorindex.NewFlat(cfg.Vector.Dimension, cfg.Vector.IndexPath, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open vector index", zap.Error(err))
	}

	embedder, err := embedding.NewClient(embedding.Config{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.Timeout,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize embedding client", zap.Error(err))
	}

	reader := filereader.New()

	catalogService, err := service.NewCatalogService(
		ctx,
		reader,
		normalizer.ForCatalog(),
		catalogRepo,
		index,
		embedder,
		appLogger,
	)
	if err != nil {
		appLogger.Fatal("Failed to load catalog", zap.Error(err))
	}

	matchService := service.NewMatchService(
		reader,
		normalizer.ForRequirements(),
		catalogRepo,
		embedder,
		index,
		cfg.Vector.TopK,
		float32(cfg.Vector.MaxDistance),
		appLogger,
	)

	catalogHandler := handlers.NewCatalogHandler(catalogService, appLogger)
	matchHandler := handlers.NewMatchHandler(matchService, appLogger)
	templateHandler := handlers.NewTemplateHandler(cfg.Templates)

	app := api.SetupRouter(catalogHandler, matchHandler, templateHandler, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}

func newCatalogRepository(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) (repository.CatalogRepository, error) {
	switch cfg.Repository.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresCatalogRepository(pool, appLogger), nil
	case "csv", "":
		return repository.NewCSVCatalogRepository(cfg.Repository.CSVPath, appLogger)
	default:
		return nil, fmt.Errorf("unknown repository driver %q", cfg.Repository.Driver)
	}
}
