package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerMedicineRoutes(api fiber.Router, h *handler.MedicineHandler, authRequired fiber.Handler) {
	group := api.Group("/medicines", authRequired)
	group.Get("/:id", h.Get)
	group.Patch("/:id", h.Update)
	group.Delete("/:id", h.Delete)
}
