package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/notification"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func mapNotificationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, notification.ErrNotificationNotFound):
		return notFound(c, faMessage(err))
	default:
		return internalError(c)
	}
}

// GET /api/v1/notifications
func (h *NotificationHandler) List(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}

	var q struct {
		Unread  bool `query:"unread"`
		Page    int  `query:"page"`
		PerPage int  `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	result, err := h.svc.List(c.Context(), userID, notification.ListNotificationsRequest{
		UnreadOnly: q.Unread,
		Page:       q.Page,
		PerPage:    q.PerPage,
	})
	if err != nil {
		return mapNotificationError(c, err)
	}
	return paginated(c, "notifications", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}

	n, err := h.svc.UnreadCount(c.Context(), userID)
	if err != nil {
		return mapNotificationError(c, err)
	}
	return ok(c, fiber.Map{"unread": n})
}

// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	notificationID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه اعلان نامعتبر است")
	}

	if err := h.svc.MarkRead(c.Context(), userID, notificationID); err != nil {
		return mapNotificationError(c, err)
	}
	return noContent(c)
}

// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}

	if err := h.svc.MarkAllRead(c.Context(), userID); err != nil {
		return mapNotificationError(c, err)
	}
	return noContent(c)
}
