package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerShareRoutes(api fiber.Router, h *handler.ShareHandler, authRequired fiber.Handler) {
	group := api.Group("/shares", authRequired)
	group.Delete("/:id", h.Revoke)
}
