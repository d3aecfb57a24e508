package api

import (
	"supplymatch/internal/api/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func SetupRouter(
	catalogHandler *handlers.CatalogHandler,
	matchHandler *handlers.MatchHandler,
	templateHandler *handlers.TemplateHandler,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	catalog := api.Group("/catalog")
	catalog.Get("", catalogHandler.List)
	catalog.Get("/info", catalogHandler.Info)
	catalog.Get("/categories", catalogHandler.Categories)
	catalog.Get("/subcategories", catalogHandler.Subcategories)
	catalog.Get("/providers", catalogHandler.Providers)
	catalog.Post("/items", catalogHandler.Upsert)
	catalog.Put("/items", catalogHandler.Replace)
	catalog.Patch("/items/:id/status", catalogHandler.UpdateStatus)

	requirements := api.Group("/requirements")
	requirements.Post("/match", matchHandler.Match)

	templates := api.Group("/templates")
	templates.Get("/catalog", templateHandler.CatalogTemplate)
	templates.Get("/requirement", templateHandler.RequirementTemplate)

	return app
}
