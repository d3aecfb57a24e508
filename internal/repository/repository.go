// Package repository persists catalog item snapshots. The aggregate itself is
// never stored; repositories serialize the flat item records it emits.
package repository

import "context"

// ItemRecord is the flat persistence shape of a catalog item.
type ItemRecord struct {
	ItemID      string
	Name        string
	Category    string
	Subcategory string
	Description string
	Unit        string
	Provider    string
	Attributes  map[string]string
	Active      bool
}

// CatalogRepository stores and retrieves catalog item snapshots.
type CatalogRepository interface {
	Get(ctx context.Context) ([]ItemRecord, error)
	Save(ctx context.Context, records []ItemRecord) error
}
