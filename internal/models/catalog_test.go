package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog := NewCatalog(SourceManual)
	err := catalog.UpsertItem("item-1", ItemUpdate{
		Name:        ptr("Hammer"),
		Category:    ptr("Tools"),
		Description: ptr("Steel claw hammer"),
		Unit:        ptr("pcs"),
	})
	require.NoError(t, err)
	return catalog
}

func TestCatalog_UpsertItem_Create(t *testing.T) {
	catalog := NewCatalog(SourceCSV)
	require.Equal(t, 0, catalog.Version())

	err := catalog.UpsertItem("item-1", ItemUpdate{
		Name:        ptr("Hammer"),
		Category:    ptr("Tools"),
		Description: ptr("Steel claw hammer"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.Version())
	assert.Equal(t, SourceCSV, catalog.Source())

	item, err := catalog.GetItem("item-1")
	require.NoError(t, err)
	assert.Equal(t, "Hammer", item.Name())
	assert.True(t, item.Active())
}

func TestCatalog_UpsertItem_PartialUpdate(t *testing.T) {
	catalog := newTestCatalog(t)

	err := catalog.UpsertItem("item-1", ItemUpdate{Category: ptr("Hardware")})
	require.NoError(t, err)

	item, err := catalog.GetItem("item-1")
	require.NoError(t, err)
	assert.Equal(t, "Hardware", item.Category())
	// unspecified fields stay untouched
	assert.Equal(t, "Hammer", item.Name())
	assert.Equal(t, "pcs", item.Unit())
	assert.Equal(t, 2, catalog.Version())
}

func TestCatalog_UpsertItem_ValidationDoesNotMutate(t *testing.T) {
	catalog := newTestCatalog(t)
	before := catalog.Version()

	err := catalog.UpsertItem("item-1", ItemUpdate{Name: ptr("   ")})
	require.Error(t, err)

	var invalid *InvalidItemError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, before, catalog.Version())

	item, err := catalog.GetItem("item-1")
	require.NoError(t, err)
	assert.Equal(t, "Hammer", item.Name())
}

func batchRecord(id string) map[string]any {
	return map[string]any{
		"item_id":     id,
		"name":        "Item " + id,
		"category":    "Tools",
		"description": "A tool",
	}
}

func TestCatalog_BatchUpsert_AccountsForEveryRecord(t *testing.T) {
	catalog := NewCatalog(SourceManual)

	records := []map[string]any{
		batchRecord("a"),
		{"name": "No id", "category": "Tools", "description": "x"},
		{"item_id": "b", "category": "Tools", "description": "x"}, // missing name
		batchRecord("c"),
	}

	errs := catalog.BatchUpsert(records)

	assert.Len(t, errs, 2)
	assert.Contains(t, errs, "no_id_0")
	assert.Contains(t, errs, "b")
	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, len(records), len(errs)+catalog.Len())
}

func TestCatalog_BatchUpsert_VersionSemantics(t *testing.T) {
	catalog := NewCatalog(SourceManual)

	// all records fail: version untouched
	errs := catalog.BatchUpsert([]map[string]any{
		{"name": "no id"},
		{"item_id": "x"},
	})
	assert.Len(t, errs, 2)
	assert.Equal(t, 0, catalog.Version())

	// empty batch: version untouched
	errs = catalog.BatchUpsert(nil)
	assert.Empty(t, errs)
	assert.Equal(t, 0, catalog.Version())

	// partial success: exactly one bump, not one per item
	errs = catalog.BatchUpsert([]map[string]any{
		batchRecord("a"),
		batchRecord("b"),
		{"item_id": "bad"},
	})
	assert.Len(t, errs, 1)
	assert.Equal(t, 1, catalog.Version())
}

func TestCatalog_BatchUpsert_PlaceholderKeys(t *testing.T) {
	catalog := NewCatalog(SourceManual)

	errs := catalog.BatchUpsert([]map[string]any{
		{"name": "first"},
		{"name": "second"},
	})

	assert.Contains(t, errs, "no_id_0")
	assert.Contains(t, errs, "no_id_1")
}

func TestCatalog_BatchUpsert_Attributes(t *testing.T) {
	catalog := NewCatalog(SourceManual)

	record := batchRecord("a")
	record["attributes"] = map[string]any{"voltage": 220, "color": "red"}

	errs := catalog.BatchUpsert([]map[string]any{record})
	require.Empty(t, errs)

	item, err := catalog.GetItem("a")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"voltage": "220", "color": "red"}, item.Attributes())
}

func TestCatalog_BatchUpsert_BadAttributes(t *testing.T) {
	catalog := NewCatalog(SourceManual)

	record := batchRecord("a")
	record["attributes"] = "not a map"

	errs := catalog.BatchUpsert([]map[string]any{record})
	require.Contains(t, errs, "a")
	assert.Contains(t, errs["a"], "attributes")
}

func TestCatalog_StatusOperations(t *testing.T) {
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.Deactivate("item-1"))
	item, err := catalog.GetItem("item-1")
	require.NoError(t, err)
	assert.False(t, item.Active())

	require.NoError(t, catalog.Activate("item-1"))
	item, err = catalog.GetItem("item-1")
	require.NoError(t, err)
	assert.True(t, item.Active())

	require.NoError(t, catalog.UpdateStatus("item-1", false))
	item, err = catalog.GetItem("item-1")
	require.NoError(t, err)
	assert.False(t, item.Active())
}

func TestCatalog_StatusOperations_NotFound(t *testing.T) {
	catalog := newTestCatalog(t)

	assert.ErrorIs(t, catalog.Activate("missing"), ErrItemNotFound)
	assert.ErrorIs(t, catalog.Deactivate("missing"), ErrItemNotFound)
	assert.ErrorIs(t, catalog.UpdateStatus("missing", true), ErrItemNotFound)
}

func TestCatalog_FieldUpdates(t *testing.T) {
	catalog := newTestCatalog(t)

	require.NoError(t, catalog.UpdateItemName("item-1", "Mallet"))
	require.NoError(t, catalog.UpdateItemCategory("item-1", "Hardware"))
	require.NoError(t, catalog.UpdateItemSubcategory("item-1", "Striking"))
	require.NoError(t, catalog.UpdateItemDescription("item-1", "Rubber mallet"))
	require.NoError(t, catalog.UpdateItemUnit("item-1", "unit"))
	require.NoError(t, catalog.UpdateItemProvider("item-1", "Acme"))
	require.NoError(t, catalog.UpdateItemAttributes("item-1", map[string]string{"color": "black"}))

	item, err := catalog.GetItem("item-1")
	require.NoError(t, err)
	assert.Equal(t, "Mallet", item.Name())
	assert.Equal(t, "Hardware", item.Category())
	assert.Equal(t, "Striking", item.Subcategory())
	assert.Equal(t, "Rubber mallet", item.Description())
	assert.Equal(t, "unit", item.Unit())
	assert.Equal(t, "Acme", item.Provider())
	assert.Equal(t, map[string]string{"color": "black"}, item.Attributes())
}

func TestCatalog_FieldUpdates_NotFound(t *testing.T) {
	catalog := NewCatalog(SourceManual)
	assert.ErrorIs(t, catalog.UpdateItemName("missing", "x"), ErrItemNotFound)
	assert.ErrorIs(t, catalog.UpdateItemAttributes("missing", nil), ErrItemNotFound)
}

func TestCatalog_GetItems_Snapshot(t *testing.T) {
	catalog := newTestCatalog(t)

	items := catalog.Items()
	delete(items, "item-1")

	_, err := catalog.GetItem("item-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, catalog.Len())
}

func TestCatalog_VersionBumpPerOperation(t *testing.T) {
	catalog := NewCatalog(SourceManual)

	for i := 0; i < 3; i++ {
		err := catalog.UpsertItem(fmt.Sprintf("item-%d", i), ItemUpdate{
			Name:        ptr("Item"),
			Category:    ptr("Tools"),
			Description: ptr("A tool"),
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, catalog.Version())
}
