package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerProfileRoutes(api fiber.Router, h *handler.ProfileHandler, authRequired fiber.Handler) {
	group := api.Group("/profile", authRequired)
	group.Get("/", h.Get)
	group.Patch("/", h.Update)
	group.Post("/change-password", h.ChangePassword)
	group.Post("/avatar", h.UploadAvatar)
}
