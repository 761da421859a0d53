package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerScheduleRoutes(api fiber.Router, h *handler.ScheduleHandler, authRequired fiber.Handler) {
	group := api.Group("/schedules", authRequired)

	s := group.Group("/:id")
	s.Get("/", h.Get)
	s.Patch("/", h.Update)
	s.Delete("/", h.Delete)

	// Status transitions
	s.Post("/taken", h.MarkTaken)
	s.Post("/missed", h.MarkMissed)
	s.Post("/skipped", h.MarkSkipped)
	s.Post("/reset", h.ResetStatus)

	// Intake history
	s.Get("/intakes", h.IntakeHistory)
	s.Post("/intakes", h.LogIntake)
}
