package service

import (
	"context"

	"supplymatch/internal/vectorindex"
)

// FileReader parses uploaded files into raw records.
type FileReader interface {
	ReadCatalog(filename string, data []byte) ([]map[string]any, error)
	ReadRequirements(filename string, data []byte) ([]map[string]any, error)
}

// Normalizer canonicalizes raw records against a field schema.
type Normalizer interface {
	Normalize(records []map[string]any) ([]map[string]any, error)
}

// EmbeddingService turns text into a fixed-length vector.
type EmbeddingService interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex persists embeddings keyed by item_id and answers
// nearest-neighbor queries ordered by ascending distance.
type VectorIndex interface {
	Save(entries []vectorindex.Entry) error
	Search(query []float32, topK int) ([]vectorindex.Result, error)
	Reset() error
}
