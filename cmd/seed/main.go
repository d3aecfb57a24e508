// Command seed ingests a catalog file offline: it fills in missing item ids,
// merges the records into the persisted catalog and rebuilds the vector
// index, without starting the HTTP server.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"supplymatch/internal/embedding"
	"supplymatch/internal/filereader"
	"supplymatch/internal/normalizer"
	"supplymatch/internal/repository"
	"supplymatch/internal/service"
	"supplymatch/internal/vectorindex"
	"supplymatch/pkg/config"
	"supplymatch/pkg/logger"
	"supplymatch/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	filePath := flag.String("file", "", "catalog file to ingest (.csv or .json)")
	flag.Parse()

	if *filePath == "" {
		fmt.Println("usage: seed -file <catalog.csv>")
		os.Exit(1)
	}

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

	ctx := context.Background()

	data, err := os.ReadFile(*filePath)
	if err != nil {
		appLogger.Fatal("Failed to read catalog file", zap.Error(err))
	}
	if strings.EqualFold(filepath.Ext(*filePath), ".csv") {
		if data, err = fillMissingIDs(data); err != nil {
			appLogger.Fatal("Failed to prepare catalog file", zap.Error(err))
		}
	}

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

	catalogService, err := service.NewCatalogService(
		ctx,
		filereader.New(),
		normalizer.ForCatalog(),
		catalogRepo,
		index,
		embedder,
		appLogger,
	)
	if err != nil {
		appLogger.Fatal("Failed to load catalog", zap.Error(err))
	}

	batchErrs, err := catalogService.Upsert(ctx, *filePath, data)
	if err != nil {
		appLogger.Fatal("Catalog ingestion failed", zap.Error(err))
	}

	for itemID, reason := range batchErrs {
		appLogger.Warn("record rejected",
			zap.String("item_id", itemID),
			zap.String("reason", reason),
		)
	}
	info := catalogService.Info()
	appLogger.Info("Catalog seeded",
		zap.Int("items", info.Items),
		zap.Int("rejected", len(batchErrs)),
	)
}

// fillMissingIDs synthesizes a uuid for every CSV row whose item_id column
// is empty, so hand-maintained files can omit ids.
func fillMissingIDs(data []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog csv: %w", err)
	}
	if len(rows) == 0 {
		return data, nil
	}

	idColumn := -1
	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), "item_id") {
			idColumn = i
			break
		}
	}
	if idColumn == -1 {
		return data, nil
	}

	for _, row := range rows[1:] {
		if idColumn < len(row) && strings.TrimSpace(row[idColumn]) == "" {
			row[idColumn] = uuid.NewString()
		}
	}

	var out bytes.Buffer
	writer := csv.NewWriter(&out)
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("rewrite catalog csv: %w", err)
	}
	return out.Bytes(), nil
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
