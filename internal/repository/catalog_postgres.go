package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresCatalogRepository stores the catalog snapshot in a catalog_items
// table with attributes as JSONB. Save replaces the whole snapshot in one
// transaction, mirroring the file repository's overwrite semantics.
type PostgresCatalogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresCatalogRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db, logger: logger}
}

func (r *PostgresCatalogRepository) Get(ctx context.Context) ([]ItemRecord, error) {
	query := squirrel.Select(
		"item_id", "name", "category", "subcategory",
		"description", "unit", "provider", "attributes", "active",
	).
		From("catalog_items").
		OrderBy("item_id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build catalog select: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	defer rows.Close()

	var records []ItemRecord
	for rows.Next() {
		var record ItemRecord
		var attributes []byte
		if err := rows.Scan(
			&record.ItemID, &record.Name, &record.Category, &record.Subcategory,
			&record.Description, &record.Unit, &record.Provider, &attributes, &record.Active,
		); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		record.Attributes = map[string]string{}
		if len(attributes) > 0 {
			if err := json.Unmarshal(attributes, &record.Attributes); err != nil {
				r.logger.Warn("malformed attributes for item, ignoring",
					zap.String("item_id", record.ItemID))
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog items: %w", err)
	}
	return records, nil
}

func (r *PostgresCatalogRepository) Save(ctx context.Context, records []ItemRecord) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin catalog save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM catalog_items"); err != nil {
		return fmt.Errorf("clear catalog items: %w", err)
	}

	for _, record := range records {
		attributes, err := json.Marshal(record.Attributes)
		if err != nil {
			return fmt.Errorf("encode attributes for %s: %w", record.ItemID, err)
		}

		insert := squirrel.Insert("catalog_items").
			Columns("item_id", "name", "category", "subcategory",
				"description", "unit", "provider", "attributes", "active").
			Values(record.ItemID, record.Name, record.Category, record.Subcategory,
				record.Description, record.Unit, record.Provider, attributes, record.Active).
			PlaceholderFormat(squirrel.Dollar)

		sql, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build catalog insert: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert catalog item %s: %w", record.ItemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit catalog save: %w", err)
	}

	r.logger.Debug("catalog snapshot saved", zap.Int("items", len(records)))
	return nil
}
