package dto

type CatalogItemResponse struct {
	ItemID      string            `json:"item_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory,omitempty"`
	Description string            `json:"description"`
	Unit        string            `json:"unit,omitempty"`
	Provider    string            `json:"provider,omitempty"`
	Active      bool              `json:"active"`
	Attributes  map[string]string `json:"attributes"`
}

type CatalogListResponse struct {
	Items []CatalogItemResponse `json:"items"`
}

type CatalogInfoResponse struct {
	Version     int    `json:"version"`
	LastUpdated string `json:"last_updated"`
	Source      string `json:"source"`
	Items       int    `json:"items"`
}

type BatchErrorsResponse struct {
	Errors map[string]string `json:"errors"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type SubcategoriesResponse struct {
	Subcategories []string `json:"subcategories"`
}

type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

type UpdateStatusRequest struct {
	Active bool `json:"active"`
}
