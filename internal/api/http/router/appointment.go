package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerAppointmentRoutes(api fiber.Router, h *handler.AppointmentHandler, authRequired fiber.Handler) {
	group := api.Group("/appointments", authRequired)
	group.Get("/:id", h.Get)
	group.Patch("/:id", h.Update)
	group.Put("/:id/status", h.SetStatus)
	group.Delete("/:id", h.Delete)
}
