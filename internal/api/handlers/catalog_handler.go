package handlers

import (
	"io"
	"time"

	"supplymatch/internal/dto"
	"supplymatch/internal/repository"
	"supplymatch/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// List returns the catalog items. Inactive items are skipped unless
// include_inactive=true is passed.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	includeInactive := c.QueryBool("include_inactive", false)

	records := h.catalogService.List(includeInactive)
	items := make([]dto.CatalogItemResponse, 0, len(records))
	for _, record := range records {
		items = append(items, itemResponse(record))
	}
	return c.JSON(dto.CatalogListResponse{Items: items})
}

// Upsert ingests a catalog file, merging it into the existing catalog.
// Per-record failures are reported in the response body, not as an error.
func (h *CatalogHandler) Upsert(c *fiber.Ctx) error {
	filename, data, err := formFile(c, "catalog_file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "catalog_file is required",
		})
	}

	batchErrs, err := h.catalogService.Upsert(c.Context(), filename, data)
	if err != nil {
		h.logger.Error("catalog upsert failed", zap.Error(err))
		return errorJSON(c, err)
	}
	return c.JSON(dto.BatchErrorsResponse{Errors: batchErrs})
}

// Replace rebuilds the catalog from the uploaded file, discarding previous
// contents.
func (h *CatalogHandler) Replace(c *fiber.Ctx) error {
	filename, data, err := formFile(c, "catalog_file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "catalog_file is required",
		})
	}

	batchErrs, err := h.catalogService.Append(c.Context(), filename, data)
	if err != nil {
		h.logger.Error("catalog replace failed", zap.Error(err))
		return errorJSON(c, err)
	}
	return c.JSON(dto.BatchErrorsResponse{Errors: batchErrs})
}

// Info returns the aggregate's version, last update time and source.
func (h *CatalogHandler) Info(c *fiber.Ctx) error {
	info := h.catalogService.Info()
	return c.JSON(dto.CatalogInfoResponse{
		Version:     info.Version,
		LastUpdated: info.LastUpdated.Format(time.RFC3339),
		Source:      string(info.Source),
		Items:       info.Items,
	})
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(dto.CategoriesResponse{Categories: h.catalogService.Categories()})
}

func (h *CatalogHandler) Subcategories(c *fiber.Ctx) error {
	return c.JSON(dto.SubcategoriesResponse{Subcategories: h.catalogService.Subcategories()})
}

func (h *CatalogHandler) Providers(c *fiber.Ctx) error {
	return c.JSON(dto.ProvidersResponse{Providers: h.catalogService.Providers()})
}

// UpdateStatus sets the active flag on a single item.
func (h *CatalogHandler) UpdateStatus(c *fiber.Ctx) error {
	itemID := c.Params("id")

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.catalogService.SetStatus(c.Context(), itemID, req.Active); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func itemResponse(record repository.ItemRecord) dto.CatalogItemResponse {
	return dto.CatalogItemResponse{
		ItemID:      record.ItemID,
		Name:        record.Name,
		Category:    record.Category,
		Subcategory: record.Subcategory,
		Description: record.Description,
		Unit:        record.Unit,
		Provider:    record.Provider,
		Active:      record.Active,
		Attributes:  record.Attributes,
	}
}

// formFile reads a multipart upload into memory.
func formFile(c *fiber.Ctx, field string) (string, []byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return fileHeader.Filename, data, nil
}
