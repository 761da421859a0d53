package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/api/http/handler"
)

func (r *Router) registerNotificationRoutes(api fiber.Router, h *handler.NotificationHandler, authRequired fiber.Handler) {
	group := api.Group("/notifications", authRequired)
	group.Get("/", h.List)
	group.Get("/unread-count", h.UnreadCount)
	group.Put("/read-all", h.MarkAllRead)
	group.Put("/:id/read", h.MarkRead)
}
