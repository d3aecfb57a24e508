package handlers

import (
	"errors"

	"supplymatch/internal/embedding"
	"supplymatch/internal/filereader"
	"supplymatch/internal/models"
	"supplymatch/internal/normalizer"
	"supplymatch/internal/service"
	"supplymatch/internal/vectorindex"

	"github.com/gofiber/fiber/v2"
)

// statusFromError maps the error taxonomy to HTTP status codes: validation
// and malformed input to 400, unknown items to 404, external service
// failures to 502.
func statusFromError(err error) int {
	var invalidItem *models.InvalidItemError
	var normErr *normalizer.Error

	switch {
	case errors.Is(err, models.ErrItemNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &invalidItem),
		errors.As(err, &normErr),
		errors.Is(err, service.ErrEmptyCatalogFile),
		errors.Is(err, service.ErrEmptyRequirementFile),
		errors.Is(err, service.ErrUnsupportedSource),
		errors.Is(err, filereader.ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	case errors.Is(err, embedding.ErrService),
		errors.Is(err, vectorindex.ErrDimensionMismatch):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusFromError(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
