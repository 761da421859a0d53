package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerVitalsRoutes(api fiber.Router, h *handler.VitalsHandler, authRequired fiber.Handler) {
	group := api.Group("/vitals", authRequired)
	group.Delete("/:id", h.Delete)
}
