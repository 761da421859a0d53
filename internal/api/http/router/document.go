package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerDocumentRoutes(api fiber.Router, h *handler.DocumentHandler, authRequired fiber.Handler) {
	documents := api.Group("/documents", authRequired)
	documents.Get("/:id", h.Get)
	documents.Patch("/:id", h.Update)
	documents.Get("/:id/download", h.Download)
	documents.Delete("/:id", h.Delete)

	categories := api.Group("/categories", authRequired)
	categories.Get("/", h.ListCategories)
	categories.Post("/", h.CreateCategory)
	categories.Delete("/:id", h.DeleteCategory)
}
