package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"supplymatch/internal/models"
	"supplymatch/internal/repository"
	"supplymatch/pkg/metrics"

	"go.uber.org/zap"
)

// MatchItem is a single catalog candidate for a requirement. Score is the
// raw distance reported by the vector index; lower means more similar.
type MatchItem struct {
	CatalogItemID string
	Name          string
	Category      string
	Subcategory   string
	Description   string
	Unit          string
	Provider      string
	Attributes    map[string]string
	Score         float32
}

// RequirementMatch pairs a normalized requirement with its ranked matches.
// Error is set when an external call failed for this requirement; the rest
// of the pipeline run is unaffected.
type RequirementMatch struct {
	Requirement map[string]any
	Matches     []MatchItem
	Error       string
}

// MatchService runs the requirement matching pipeline: read, normalize,
// embed, search, threshold-filter, enrich, rank.
type MatchService struct {
	reader      FileReader
	normalizer  Normalizer
	repo        repository.CatalogRepository
	embedder    EmbeddingService
	index       VectorIndex
	topK        int
	maxDistance float32
	logger      *zap.Logger
}

// NewMatchService builds the pipeline. topK bounds the neighbor search and
// maxDistance drops candidates too far from the query.
func NewMatchService(
	reader FileReader,
	normalizer Normalizer,
	repo repository.CatalogRepository,
	embedder EmbeddingService,
	index VectorIndex,
	topK int,
	maxDistance float32,
	logger *zap.Logger,
) *MatchService {
	if topK <= 0 {
		topK = 3
	}
	return &MatchService{
		reader:      reader,
		normalizer:  normalizer,
		repo:        repo,
		embedder:    embedder,
		index:       index,
		topK:        topK,
		maxDistance: maxDistance,
		logger:      logger,
	}
}

// Match executes the pipeline for every requirement in the upload,
// preserving requirement order. Normalization failures and an empty file
// abort the run; an embedding or search failure fails only its requirement.
// A vector hit whose item_id is missing from the catalog is a data-integrity
// fault and aborts the run with ErrItemNotFound.
func (s *MatchService) Match(ctx context.Context, filename string, data []byte) ([]RequirementMatch, error) {
	metrics.MatchRequests.Inc()

	raw, err := s.reader.ReadRequirements(filename, data)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyRequirementFile
	}

	requirements, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	catalog, _ := buildAggregate(records, models.SourceManual)

	results := make([]RequirementMatch, 0, len(requirements))
	for _, requirement := range requirements {
		matches, err := s.matchOne(ctx, catalog, requirement)
		if err != nil {
			if errors.Is(err, models.ErrItemNotFound) {
				return nil, err
			}
			s.logger.Warn("requirement match failed",
				zap.Any("requirement", requirement["name"]),
				zap.Error(err),
			)
			results = append(results, RequirementMatch{
				Requirement: requirement,
				Matches:     []MatchItem{},
				Error:       err.Error(),
			})
			continue
		}
		results = append(results, RequirementMatch{
			Requirement: requirement,
			Matches:     matches,
		})
	}

	s.logger.Info("requirement matching completed",
		zap.Int("requirements", len(requirements)),
	)
	return results, nil
}

func (s *MatchService) matchOne(ctx context.Context, catalog *models.Catalog, requirement map[string]any) ([]MatchItem, error) {
	embedding, err := s.embedder.GetEmbedding(ctx, QueryText(requirement))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	candidates, err := s.index.Search(embedding, s.topK)
	if err != nil {
		return nil, err
	}
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	matches := make([]MatchItem, 0, len(candidates))
	for _, candidate := range candidates {
		// Threshold applies to the raw neighbor list, before enrichment.
		if candidate.Distance > s.maxDistance {
			continue
		}
		item, err := catalog.GetItem(candidate.ItemID)
		if err != nil {
			return nil, fmt.Errorf("vector index references item %q absent from catalog: %w",
				candidate.ItemID, err)
		}
		matches = append(matches, MatchItem{
			CatalogItemID: item.ItemID(),
			Name:          item.Name(),
			Category:      item.Category(),
			Subcategory:   item.Subcategory(),
			Description:   item.Description(),
			Unit:          item.Unit(),
			Provider:      item.Provider(),
			Attributes:    item.Attributes(),
			Score:         candidate.Distance,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score < matches[j].Score
	})
	return matches, nil
}

// QueryText composes the deterministic embedding query for a requirement.
// Field order and labels are fixed; absent fields render as empty strings so
// that retrieval stays stable across runs.
func QueryText(requirement map[string]any) string {
	return fmt.Sprintf(
		"name: %s | description: %s | category: %s | subcategory: %s | unit: %s | provider: %s | attributes: %s",
		fieldString(requirement, "name"),
		fieldString(requirement, "description"),
		fieldString(requirement, "category"),
		fieldString(requirement, "subcategory"),
		fieldString(requirement, "unit"),
		fieldString(requirement, "provider"),
		renderAnyAttributes(requirement["attributes"]),
	)
}

func fieldString(record map[string]any, key string) string {
	value, ok := record[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func renderAnyAttributes(value any) string {
	switch attributes := value.(type) {
	case map[string]string:
		return renderAttributes(attributes)
	case map[string]any:
		out := make(map[string]string, len(attributes))
		for k, v := range attributes {
			out[k] = fmt.Sprint(v)
		}
		return renderAttributes(out)
	default:
		return ""
	}
}
