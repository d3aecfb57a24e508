package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"supplymatch/internal/models"
	"supplymatch/internal/repository"
	"supplymatch/internal/vectorindex"
	"supplymatch/pkg/metrics"

	"go.uber.org/zap"
)

// loadBatchSize bounds how many records are handed to the aggregate per
// batch operation when rebuilding it from persistence.
const loadBatchSize = 50

// CatalogInfo is the aggregate's bookkeeping snapshot.
type CatalogInfo struct {
	Version     int
	LastUpdated time.Time
	Source      models.Source
	Items       int
}

// CatalogService owns the live catalog aggregate and its persistence. Writes
// are serialized by an internal lock; the aggregate itself stays
// single-writer as designed.
type CatalogService struct {
	mu         sync.RWMutex
	catalog    *models.Catalog
	reader     FileReader
	normalizer Normalizer
	repo       repository.CatalogRepository
	index      VectorIndex
	embedder   EmbeddingService
	logger     *zap.Logger
}

// NewCatalogService rebuilds the aggregate from the repository and returns
// the service managing it.
func NewCatalogService(
	ctx context.Context,
	reader FileReader,
	normalizer Normalizer,
	repo repository.CatalogRepository,
	index VectorIndex,
	embedder EmbeddingService,
	logger *zap.Logger,
) (*CatalogService, error) {
	records, err := repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	catalog, rejected := buildAggregate(records, models.SourceManual)
	if rejected > 0 {
		logger.Warn("persisted catalog contains invalid records",
			zap.Int("rejected", rejected))
	}
	metrics.CatalogItems.Set(float64(catalog.Len()))

	logger.Info("catalog loaded",
		zap.Int("items", catalog.Len()),
	)

	return &CatalogService{
		catalog:    catalog,
		reader:     reader,
		normalizer: normalizer,
		repo:       repo,
		index:      index,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

// Upsert merges a catalog upload into the existing aggregate, persists the
// snapshot and rebuilds the vector index. Per-record failures are returned
// as a map of item_id to reason; they never abort the batch.
func (s *CatalogService) Upsert(ctx context.Context, filename string, data []byte) (map[string]string, error) {
	normalized, err := s.readAndNormalize(filename, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchErrs := applyRecords(s.catalog, normalized)
	metrics.ItemsIngested.Add(float64(len(normalized) - len(batchErrs)))
	metrics.IngestErrors.Add(float64(len(batchErrs)))

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	if err := s.rebuildEmbeddingsLocked(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("catalog upsert completed",
		zap.Int("records", len(normalized)),
		zap.Int("errors", len(batchErrs)),
		zap.Int("version", s.catalog.Version()),
	)
	return batchErrs, nil
}

// Append replaces the aggregate with a fresh catalog built from the upload,
// tagged with the source resolved from the filename, then persists and
// reindexes.
func (s *CatalogService) Append(ctx context.Context, filename string, data []byte) (map[string]string, error) {
	source, err := ResolveSource(filename)
	if err != nil {
		return nil, err
	}
	normalized, err := s.readAndNormalize(filename, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalog := models.NewCatalog(source)
	batchErrs := applyRecords(catalog, normalized)
	metrics.ItemsIngested.Add(float64(len(normalized) - len(batchErrs)))
	metrics.IngestErrors.Add(float64(len(batchErrs)))

	s.catalog = catalog
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	if err := s.rebuildEmbeddingsLocked(ctx); err != nil {
		return nil, err
	}
	return batchErrs, nil
}

// Load replaces the aggregate from the upload and persists it without
// touching the vector index.
func (s *CatalogService) Load(ctx context.Context, filename string, data []byte) (map[string]string, error) {
	source, err := ResolveSource(filename)
	if err != nil {
		return nil, err
	}
	normalized, err := s.readAndNormalize(filename, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalog := models.NewCatalog(source)
	batchErrs := applyRecords(catalog, normalized)
	s.catalog = catalog
	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}
	return batchErrs, nil
}

func (s *CatalogService) readAndNormalize(filename string, data []byte) ([]map[string]any, error) {
	raw, err := s.reader.ReadCatalog(filename, data)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyCatalogFile
	}
	return s.normalizer.Normalize(raw)
}

// SetStatus flips the item's active flag and persists the snapshot. The
// repository is not touched when the item does not exist.
func (s *CatalogService) SetStatus(ctx context.Context, itemID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catalog.UpdateStatus(itemID, active); err != nil {
		return err
	}
	return s.persistLocked(ctx)
}

// Activate marks an item active.
func (s *CatalogService) Activate(ctx context.Context, itemID string) error {
	return s.SetStatus(ctx, itemID, true)
}

// Deactivate marks an item inactive.
func (s *CatalogService) Deactivate(ctx context.Context, itemID string) error {
	return s.SetStatus(ctx, itemID, false)
}

// Info returns the aggregate's bookkeeping.
func (s *CatalogService) Info() CatalogInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CatalogInfo{
		Version:     s.catalog.Version(),
		LastUpdated: s.catalog.LastUpdated(),
		Source:      s.catalog.Source(),
		Items:       s.catalog.Len(),
	}
}

// List returns item records, skipping inactive items unless requested.
func (s *CatalogService) List(includeInactive bool) []repository.ItemRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := snapshotRecords(s.catalog)
	if includeInactive {
		return records
	}
	filtered := records[:0]
	for _, record := range records {
		if record.Active {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// Categories returns the distinct non-empty categories, sorted.
func (s *CatalogService) Categories() []string {
	return s.distinct(func(item models.CatalogItem) string { return item.Category() })
}

// Subcategories returns the distinct non-empty subcategories, sorted.
func (s *CatalogService) Subcategories() []string {
	return s.distinct(func(item models.CatalogItem) string { return item.Subcategory() })
}

// Providers returns the distinct non-empty providers, sorted.
func (s *CatalogService) Providers() []string {
	return s.distinct(func(item models.CatalogItem) string { return item.Provider() })
}

func (s *CatalogService) distinct(value func(models.CatalogItem) string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, item := range s.catalog.Items() {
		if v := value(item); v != "" {
			seen[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func (s *CatalogService) persistLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, snapshotRecords(s.catalog)); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	metrics.CatalogItems.Set(float64(s.catalog.Len()))
	return nil
}

// rebuildEmbeddingsLocked reindexes every item in the aggregate. The index
// is reset first so its contents and id mapping always mirror the catalog.
func (s *CatalogService) rebuildEmbeddingsLocked(ctx context.Context) error {
	if err := s.index.Reset(); err != nil {
		return fmt.Errorf("reset vector index: %w", err)
	}

	items := s.catalog.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]vectorindex.Entry, 0, len(ids))
	for _, id := range ids {
		item := items[id]
		embedding, err := s.embedder.GetEmbedding(ctx, IngestionText(item))
		if err != nil {
			return fmt.Errorf("embed catalog item %s: %w", id, err)
		}
		entries = append(entries, vectorindex.Entry{ItemID: id, Embedding: embedding})
	}

	if err := s.index.Save(entries); err != nil {
		return fmt.Errorf("save vector index: %w", err)
	}
	return nil
}

// IngestionText composes the text embedded for a catalog item. The field
// order is fixed so that reindexing the same catalog produces the same
// vectors.
func IngestionText(item models.CatalogItem) string {
	return fmt.Sprintf(
		"name: %s | category: %s | subcategory: %s | description: %s | unit: %s | provider: %s | attributes: %s | active: %t",
		item.Name(),
		item.Category(),
		item.Subcategory(),
		item.Description(),
		item.Unit(),
		item.Provider(),
		renderAttributes(item.Attributes()),
		item.Active(),
	)
}

func renderAttributes(attributes map[string]string) string {
	if len(attributes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+attributes[k])
	}
	return strings.Join(pairs, ",")
}

// ResolveSource maps a filename extension to a catalog source tag.
func ResolveSource(filename string) (models.Source, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return models.SourceCSV, nil
	case ".json":
		return models.SourceJSON, nil
	case ".xlsx":
		return models.SourceXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, filepath.Ext(filename))
	}
}

// buildAggregate rebuilds a catalog from persisted records, restoring the
// active flag the batch path does not carry. Returns the rebuilt aggregate
// and the number of rejected records.
func buildAggregate(records []repository.ItemRecord, source models.Source) (*models.Catalog, int) {
	catalog := models.NewCatalog(source)
	errs := applyRecords(catalog, recordsToRaw(records))
	for _, record := range records {
		if !record.Active {
			_ = catalog.UpdateStatus(record.ItemID, false)
		}
	}
	return catalog, len(errs)
}

// applyRecords feeds records to the aggregate in bounded batches and merges
// the per-record error maps. Placeholder keys for id-less records are
// renumbered across batches so no entry shadows another in the merged map.
func applyRecords(catalog *models.Catalog, records []map[string]any) map[string]string {
	errs := make(map[string]string)
	placeholders := 0
	for start := 0; start < len(records); start += loadBatchSize {
		end := start + loadBatchSize
		if end > len(records) {
			end = len(records)
		}
		for id, reason := range catalog.BatchUpsert(records[start:end]) {
			if strings.HasPrefix(id, "no_id_") {
				id = fmt.Sprintf("no_id_%d", placeholders)
				placeholders++
			}
			errs[id] = reason
		}
	}
	return errs
}

func snapshotRecords(catalog *models.Catalog) []repository.ItemRecord {
	items := catalog.Items()
	records := make([]repository.ItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, repository.ItemRecord{
			ItemID:      item.ItemID(),
			Name:        item.Name(),
			Category:    item.Category(),
			Subcategory: item.Subcategory(),
			Description: item.Description(),
			Unit:        item.Unit(),
			Provider:    item.Provider(),
			Attributes:  item.Attributes(),
			Active:      item.Active(),
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ItemID < records[j].ItemID })
	return records
}

func recordsToRaw(records []repository.ItemRecord) []map[string]any {
	raw := make([]map[string]any, 0, len(records))
	for _, record := range records {
		entry := map[string]any{
			"item_id":     record.ItemID,
			"name":        record.Name,
			"category":    record.Category,
			"description": record.Description,
			"attributes":  record.Attributes,
		}
		if record.Subcategory != "" {
			entry["subcategory"] = record.Subcategory
		}
		if record.Unit != "" {
			entry["unit"] = record.Unit
		}
		if record.Provider != "" {
			entry["provider"] = record.Provider
		}
		raw = append(raw, entry)
	}
	return raw
}
