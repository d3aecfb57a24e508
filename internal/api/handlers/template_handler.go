package handlers

import (
	"supplymatch/pkg/config"

	"github.com/gofiber/fiber/v2"
)

type TemplateHandler struct {
	templates config.TemplateConfig
}

func NewTemplateHandler(templates config.TemplateConfig) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// CatalogTemplate serves the CSV template for catalog uploads.
func (h *TemplateHandler) CatalogTemplate(c *fiber.Ctx) error {
	return c.Download(h.templates.CatalogPath, "catalog_template.csv")
}

// RequirementTemplate serves the CSV template for requirement uploads.
func (h *TemplateHandler) RequirementTemplate(c *fiber.Ctx) error {
	return c.Download(h.templates.RequirementPath, "requirements_template.csv")
}
