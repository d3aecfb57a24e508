package handlers

import (
	"supplymatch/internal/dto"
	"supplymatch/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MatchHandler struct {
	matchService *service.MatchService
	logger       *zap.Logger
}

func NewMatchHandler(matchService *service.MatchService, logger *zap.Logger) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		logger:       logger,
	}
}

// Match runs the requirement matching pipeline over an uploaded
// requirements file and returns the ranked matches per requirement.
func (h *MatchHandler) Match(c *fiber.Ctx) error {
	filename, data, err := formFile(c, "requirements_file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "requirements_file is required",
		})
	}

	results, err := h.matchService.Match(c.Context(), filename, data)
	if err != nil {
		h.logger.Error("requirement matching failed", zap.Error(err))
		return errorJSON(c, err)
	}

	response := dto.MatchResultResponse{
		Results: make([]dto.RequirementMatchResponse, 0, len(results)),
	}
	for _, result := range results {
		matches := make([]dto.MatchItemResponse, 0, len(result.Matches))
		for _, match := range result.Matches {
			matches = append(matches, dto.MatchItemResponse{
				CatalogItemID: match.CatalogItemID,
				Name:          match.Name,
				Category:      match.Category,
				Subcategory:   match.Subcategory,
				Description:   match.Description,
				Unit:          match.Unit,
				Provider:      match.Provider,
				Attributes:    match.Attributes,
				Score:         match.Score,
			})
		}
		response.Results = append(response.Results, dto.RequirementMatchResponse{
			Requirement: result.Requirement,
			Matches:     matches,
			Error:       result.Error,
		})
	}
	return c.JSON(response)
}
