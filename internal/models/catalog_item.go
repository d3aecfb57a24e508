package models

import "strings"

// CatalogItem is a single supply catalog record. It is an immutable value:
// every update method validates the change and returns a fresh instance,
// leaving the receiver untouched.
type CatalogItem struct {
	itemID      string
	name        string
	category    string
	subcategory string
	description string
	unit        string
	provider    string
	active      bool
	attributes  map[string]string
}

// CatalogItemFields carries the non-identity attributes used to construct a
// CatalogItem. Optional string fields use "" for absent.
type CatalogItemFields struct {
	Name        string
	Category    string
	Subcategory string
	Description string
	Unit        string
	Provider    string
	Attributes  map[string]string
}

// NewCatalogItem builds and validates a catalog item. New items start active.
func NewCatalogItem(itemID string, fields CatalogItemFields) (CatalogItem, error) {
	item := CatalogItem{
		itemID:      itemID,
		name:        fields.Name,
		category:    fields.Category,
		subcategory: fields.Subcategory,
		description: fields.Description,
		unit:        fields.Unit,
		provider:    fields.Provider,
		active:      true,
		attributes:  copyAttributes(fields.Attributes),
	}
	if err := item.validate(); err != nil {
		return CatalogItem{}, err
	}
	return item, nil
}

func (i CatalogItem) validate() error {
	if strings.TrimSpace(i.itemID) == "" {
		return invalidItem("item_id", "must be a non-empty string")
	}
	if strings.TrimSpace(i.name) == "" {
		return invalidItem("name", "must be a non-empty string")
	}
	if strings.TrimSpace(i.category) == "" {
		return invalidItem("category", "must be a non-empty string")
	}
	if strings.TrimSpace(i.description) == "" {
		return invalidItem("description", "must be a non-empty string")
	}
	if i.subcategory != "" && strings.TrimSpace(i.subcategory) == "" {
		return invalidItem("subcategory", "must be non-empty when present")
	}
	if i.unit != "" && strings.TrimSpace(i.unit) == "" {
		return invalidItem("unit", "must be non-empty when present")
	}
	if i.provider != "" && strings.TrimSpace(i.provider) == "" {
		return invalidItem("provider", "must be non-empty when present")
	}
	return nil
}

// Accessors

func (i CatalogItem) ItemID() string      { return i.itemID }
func (i CatalogItem) Name() string        { return i.name }
func (i CatalogItem) Category() string    { return i.category }
func (i CatalogItem) Subcategory() string { return i.subcategory }
func (i CatalogItem) Description() string { return i.description }
func (i CatalogItem) Unit() string        { return i.unit }
func (i CatalogItem) Provider() string    { return i.provider }
func (i CatalogItem) Active() bool        { return i.active }

// Attributes returns a copy of the free-form tag map.
func (i CatalogItem) Attributes() map[string]string {
	return copyAttributes(i.attributes)
}

// Behavior

// Activate returns the item with active set. Idempotent.
func (i CatalogItem) Activate() CatalogItem {
	i.active = true
	return i
}

// Deactivate returns the item with active cleared. Idempotent.
func (i CatalogItem) Deactivate() CatalogItem {
	i.active = false
	return i
}

// UpdateStatus returns the item with the given active flag.
func (i CatalogItem) UpdateStatus(active bool) CatalogItem {
	i.active = active
	return i
}

func (i CatalogItem) UpdateName(name string) (CatalogItem, error) {
	if strings.TrimSpace(name) == "" {
		return CatalogItem{}, invalidItem("name", "must be a non-empty string")
	}
	i.name = name
	return i, nil
}

func (i CatalogItem) UpdateCategory(category string) (CatalogItem, error) {
	if strings.TrimSpace(category) == "" {
		return CatalogItem{}, invalidItem("category", "must be a non-empty string")
	}
	i.category = category
	return i, nil
}

func (i CatalogItem) UpdateDescription(description string) (CatalogItem, error) {
	if strings.TrimSpace(description) == "" {
		return CatalogItem{}, invalidItem("description", "must be a non-empty string")
	}
	i.description = description
	return i, nil
}

func (i CatalogItem) UpdateSubcategory(subcategory string) (CatalogItem, error) {
	if strings.TrimSpace(subcategory) == "" {
		return CatalogItem{}, invalidItem("subcategory", "must be non-empty when present")
	}
	i.subcategory = subcategory
	return i, nil
}

func (i CatalogItem) UpdateUnit(unit string) (CatalogItem, error) {
	if strings.TrimSpace(unit) == "" {
		return CatalogItem{}, invalidItem("unit", "must be non-empty when present")
	}
	i.unit = unit
	return i, nil
}

func (i CatalogItem) UpdateProvider(provider string) (CatalogItem, error) {
	if strings.TrimSpace(provider) == "" {
		return CatalogItem{}, invalidItem("provider", "must be non-empty when present")
	}
	i.provider = provider
	return i, nil
}

// ReplaceAttributes returns the item with the tag map fully overwritten.
func (i CatalogItem) ReplaceAttributes(attributes map[string]string) CatalogItem {
	i.attributes = copyAttributes(attributes)
	return i
}

// MergeAttributes returns the item with the given tags shallow-merged on top
// of the existing ones. New keys override existing keys.
func (i CatalogItem) MergeAttributes(attributes map[string]string) CatalogItem {
	merged := copyAttributes(i.attributes)
	for k, v := range attributes {
		merged[k] = v
	}
	i.attributes = merged
	return i
}

func copyAttributes(attributes map[string]string) map[string]string {
	out := make(map[string]string, len(attributes))
	for k, v := range attributes {
		out[k] = v
	}
	return out
}
