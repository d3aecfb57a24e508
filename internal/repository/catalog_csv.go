package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var csvFieldnames = []string{
	"item_id",
	"name",
	"category",
	"subcategory",
	"description",
	"unit",
	"provider",
	"attributes",
	"active",
}

// CSVCatalogRepository stores the catalog snapshot as a CSV file. Attributes
// are JSON-encoded in their column; active is serialized as "true"/"false"
// and defaults to true when the column is empty.
type CSVCatalogRepository struct {
	path   string
	logger *zap.Logger
}

// NewCSVCatalogRepository builds a repository writing to path, creating the
// parent directory when needed.
func NewCSVCatalogRepository(path string, logger *zap.Logger) (*CSVCatalogRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	return &CSVCatalogRepository{path: path, logger: logger}, nil
}

// Get reads all persisted item records. A missing file yields an empty slice.
func (r *CSVCatalogRepository) Get(ctx context.Context) ([]ItemRecord, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", r.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	column := make(map[string]int, len(header))
	for i, name := range header {
		column[strings.TrimSpace(name)] = i
	}

	records := make([]ItemRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) string {
			i, ok := column[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		record := ItemRecord{
			ItemID:      cell("item_id"),
			Name:        cell("name"),
			Category:    cell("category"),
			Subcategory: cell("subcategory"),
			Description: cell("description"),
			Unit:        cell("unit"),
			Provider:    cell("provider"),
			Attributes:  decodeAttributes(cell("attributes"), r.logger),
			Active:      decodeActive(cell("active")),
		}
		records = append(records, record)
	}
	return records, nil
}

// Save overwrites the catalog file with the given snapshot.
func (r *CSVCatalogRepository) Save(ctx context.Context, records []ItemRecord) error {
	file, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("create catalog file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvFieldnames); err != nil {
		return fmt.Errorf("write catalog header: %w", err)
	}

	sorted := make([]ItemRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemID < sorted[j].ItemID })

	for _, record := range sorted {
		attributes, err := encodeAttributes(record.Attributes)
		if err != nil {
			return fmt.Errorf("encode attributes for %s: %w", record.ItemID, err)
		}
		row := []string{
			record.ItemID,
			record.Name,
			record.Category,
			record.Subcategory,
			record.Description,
			record.Unit,
			record.Provider,
			attributes,
			fmt.Sprintf("%t", record.Active),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write catalog row for %s: %w", record.ItemID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush catalog file: %w", err)
	}
	return nil
}

func encodeAttributes(attributes map[string]string) (string, error) {
	if len(attributes) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(attributes)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeAttributes(value string, logger *zap.Logger) map[string]string {
	if value == "" {
		return map[string]string{}
	}
	var attributes map[string]string
	if err := json.Unmarshal([]byte(value), &attributes); err != nil {
		logger.Warn("malformed attributes column, ignoring", zap.String("value", value))
		return map[string]string{}
	}
	return attributes
}

func decodeActive(value string) bool {
	if value == "" {
		return true
	}
	return strings.EqualFold(value, "true")
}
