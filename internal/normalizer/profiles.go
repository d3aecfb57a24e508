package normalizer

// ForCatalog returns the engine used for catalog item ingestion.
func ForCatalog() *Engine {
	return New(
		[]string{"item_id", "name", "category", "description"},
		[]string{"subcategory", "unit", "provider", "attributes"},
	)
}

// ForRequirements returns the engine used for requirement line items.
func ForRequirements() *Engine {
	return New(
		[]string{"name", "quantity", "unit"},
		[]string{"description", "category", "subcategory", "priority", "provider", "attributes"},
	)
}
