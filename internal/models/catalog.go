package models

import (
	"fmt"
	"time"
)

// Source tags the provenance of a catalog's contents.
type Source string

const (
	SourceManual Source = "MANUAL"
	SourceCSV    Source = "CSV"
	SourceJSON   Source = "JSON"
	SourceXLSX   Source = "XLSX"
)

// Catalog is the aggregate owning the catalog items, keyed by item_id.
// Version increases exactly once per successful mutating operation, whether
// single-item or whole-batch. The aggregate itself is not safe for concurrent
// writes; callers serialize mutations.
type Catalog struct {
	version     int
	lastUpdated time.Time
	source      Source
	items       map[string]CatalogItem
}

// NewCatalog constructs an empty catalog with the given provenance tag.
func NewCatalog(source Source) *Catalog {
	return &Catalog{
		lastUpdated: time.Now(),
		source:      source,
		items:       make(map[string]CatalogItem),
	}
}

// ItemUpdate carries the fields of a single upsert. Nil pointers mean "not
// provided": on update those fields are left unchanged, on create they default
// to absent. A nil Attributes map is likewise "not provided".
type ItemUpdate struct {
	Name        *string
	Category    *string
	Description *string
	Subcategory *string
	Unit        *string
	Provider    *string
	Attributes  map[string]string
}

// UpsertItem creates the item when the id is unknown, otherwise applies only
// the provided fields to the existing item. Bumps version on success; leaves
// the aggregate untouched on validation failure.
func (c *Catalog) UpsertItem(itemID string, update ItemUpdate) error {
	if err := c.applyUpdate(itemID, update); err != nil {
		return err
	}
	c.bump()
	return nil
}

func (c *Catalog) applyUpdate(itemID string, update ItemUpdate) error {
	existing, ok := c.items[itemID]
	if !ok {
		item, err := NewCatalogItem(itemID, CatalogItemFields{
			Name:        deref(update.Name),
			Category:    deref(update.Category),
			Description: deref(update.Description),
			Subcategory: deref(update.Subcategory),
			Unit:        deref(update.Unit),
			Provider:    deref(update.Provider),
			Attributes:  update.Attributes,
		})
		if err != nil {
			return err
		}
		c.items[itemID] = item
		return nil
	}

	updated := existing
	var err error
	if update.Name != nil {
		if updated, err = updated.UpdateName(*update.Name); err != nil {
			return err
		}
	}
	if update.Category != nil {
		if updated, err = updated.UpdateCategory(*update.Category); err != nil {
			return err
		}
	}
	if update.Description != nil {
		if updated, err = updated.UpdateDescription(*update.Description); err != nil {
			return err
		}
	}
	if update.Subcategory != nil {
		if updated, err = updated.UpdateSubcategory(*update.Subcategory); err != nil {
			return err
		}
	}
	if update.Unit != nil {
		if updated, err = updated.UpdateUnit(*update.Unit); err != nil {
			return err
		}
	}
	if update.Provider != nil {
		if updated, err = updated.UpdateProvider(*update.Provider); err != nil {
			return err
		}
	}
	if update.Attributes != nil {
		updated = updated.ReplaceAttributes(update.Attributes)
	}
	c.items[itemID] = updated
	return nil
}

// BatchUpsert applies each record independently and returns a map of item_id
// to failure reason. A record without an item_id is keyed by a synthesized
// no_id_<n> placeholder. One bad record never blocks the rest. Version is
// bumped exactly once when at least one record succeeded.
func (c *Catalog) BatchUpsert(records []map[string]any) map[string]string {
	errs := make(map[string]string)

	for _, record := range records {
		itemID, _ := stringField(record, "item_id")
		if itemID == nil || *itemID == "" {
			errs[fmt.Sprintf("no_id_%d", len(errs))] = "missing item_id"
			continue
		}

		update, err := updateFromRecord(record)
		if err != nil {
			errs[*itemID] = err.Error()
			continue
		}
		if err := c.applyUpdate(*itemID, update); err != nil {
			errs[*itemID] = err.Error()
		}
	}

	if len(errs) != len(records) {
		c.bump()
	}
	return errs
}

func updateFromRecord(record map[string]any) (ItemUpdate, error) {
	update := ItemUpdate{}
	var err error
	if update.Name, err = stringField(record, "name"); err != nil {
		return ItemUpdate{}, err
	}
	if update.Category, err = stringField(record, "category"); err != nil {
		return ItemUpdate{}, err
	}
	if update.Description, err = stringField(record, "description"); err != nil {
		return ItemUpdate{}, err
	}
	if update.Subcategory, err = stringField(record, "subcategory"); err != nil {
		return ItemUpdate{}, err
	}
	if update.Unit, err = stringField(record, "unit"); err != nil {
		return ItemUpdate{}, err
	}
	if update.Provider, err = stringField(record, "provider"); err != nil {
		return ItemUpdate{}, err
	}
	if update.Attributes, err = attributesField(record); err != nil {
		return ItemUpdate{}, err
	}
	return update, nil
}

func stringField(record map[string]any, key string) (*string, error) {
	raw, ok := record[key]
	if !ok || raw == nil {
		return nil, nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil, invalidItem(key, "must be a string")
	}
	return &value, nil
}

func attributesField(record map[string]any) (map[string]string, error) {
	raw, ok := record["attributes"]
	if !ok || raw == nil {
		return nil, nil
	}
	switch attrs := raw.(type) {
	case map[string]string:
		return attrs, nil
	case map[string]any:
		out := make(map[string]string, len(attrs))
		for k, v := range attrs {
			out[k] = fmt.Sprint(v)
		}
		return out, nil
	default:
		return nil, invalidItem("attributes", "must be a mapping")
	}
}

// Activate marks the item active. Fails with ErrItemNotFound when absent.
func (c *Catalog) Activate(itemID string) error {
	existing, ok := c.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	c.items[itemID] = existing.Activate()
	c.bump()
	return nil
}

// Deactivate marks the item inactive. Fails with ErrItemNotFound when absent.
func (c *Catalog) Deactivate(itemID string) error {
	existing, ok := c.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	c.items[itemID] = existing.Deactivate()
	c.bump()
	return nil
}

// UpdateStatus sets the item's active flag.
func (c *Catalog) UpdateStatus(itemID string, active bool) error {
	existing, ok := c.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	c.items[itemID] = existing.UpdateStatus(active)
	c.bump()
	return nil
}

// UpdateItemName replaces the item's name.
func (c *Catalog) UpdateItemName(itemID, name string) error {
	return c.updateItem(itemID, func(item CatalogItem) (CatalogItem, error) {
		return item.UpdateName(name)
	})
}

// UpdateItemCategory replaces the item's category.
func (c *Catalog) UpdateItemCategory(itemID, category string) error {
	return c.updateItem(itemID, func(item CatalogItem) (CatalogItem, error) {
		return item.UpdateCategory(category)
	})
}

// UpdateItemSubcategory replaces the item's subcategory.
func (c *Catalog) UpdateItemSubcategory(itemID, subcategory string) error {
	return c.updateItem(itemID, func(item CatalogItem) (CatalogItem, error) {
		return item.UpdateSubcategory(subcategory)
	})
}

// UpdateItemDescription replaces the item's description.
func (c *Catalog) UpdateItemDescription(itemID, description string) error {
	return c.updateItem(itemID, func(item CatalogItem) (CatalogItem, error) {
		return item.UpdateDescription(description)
	})
}

// UpdateItemUnit replaces the item's unit.
func (c *Catalog) UpdateItemUnit(itemID, unit string) error {
	return c.updateItem(itemID, func(item CatalogItem) (CatalogItem, error) {
		return item.UpdateUnit(unit)
	})
}

// UpdateItemProvider replaces the item's provider.
func (c *Catalog) UpdateItemProvider(itemID, provider string) error {
	return c.updateItem(itemID, func(item CatalogItem) (CatalogItem, error) {
		return item.UpdateProvider(provider)
	})
}

// UpdateItemAttributes overwrites the item's tag map.
func (c *Catalog) UpdateItemAttributes(itemID string, attributes map[string]string) error {
	return c.updateItem(itemID, func(item CatalogItem) (CatalogItem, error) {
		return item.ReplaceAttributes(attributes), nil
	})
}

func (c *Catalog) updateItem(itemID string, apply func(CatalogItem) (CatalogItem, error)) error {
	existing, ok := c.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	updated, err := apply(existing)
	if err != nil {
		return err
	}
	c.items[itemID] = updated
	c.bump()
	return nil
}

// GetItem returns the item or ErrItemNotFound.
func (c *Catalog) GetItem(itemID string) (CatalogItem, error) {
	item, ok := c.items[itemID]
	if !ok {
		return CatalogItem{}, ErrItemNotFound
	}
	return item, nil
}

// Items returns a snapshot of the item map. Mutating the returned map does
// not affect the aggregate.
func (c *Catalog) Items() map[string]CatalogItem {
	out := make(map[string]CatalogItem, len(c.items))
	for id, item := range c.items {
		out[id] = item
	}
	return out
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int { return len(c.items) }

func (c *Catalog) Version() int           { return c.version }
func (c *Catalog) LastUpdated() time.Time { return c.lastUpdated }
func (c *Catalog) Source() Source         { return c.source }

func (c *Catalog) bump() {
	c.version++
	c.lastUpdated = time.Now()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
