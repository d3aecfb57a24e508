package dto

type MatchItemResponse struct {
	CatalogItemID string            `json:"catalog_item_id"`
	Name          string            `json:"name"`
	Category      string            `json:"category"`
	Subcategory   string            `json:"subcategory,omitempty"`
	Description   string            `json:"description"`
	Unit          string            `json:"unit,omitempty"`
	Provider      string            `json:"provider,omitempty"`
	Attributes    map[string]string `json:"attributes"`
	Score         float32           `json:"score"`
}

type RequirementMatchResponse struct {
	Requirement map[string]any      `json:"requirement"`
	Matches     []MatchItemResponse `json:"matches"`
	Error       string              `json:"error,omitempty"`
}

type MatchResultResponse struct {
	Results []RequirementMatchResponse `json:"results"`
}
