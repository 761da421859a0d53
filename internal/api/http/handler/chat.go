package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/chat"
)

// streamHeartbeat keeps idle SSE connections from being reaped by proxies.
const streamHeartbeat = 30 * time.Second

type ChatHandler struct {
	svc chat.Service
}

func NewChatHandler(svc chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func mapChatError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, chat.ErrNotMember):
		return forbidden(c)
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooBig):
		return badRequest(c, faMessage(err))
	default:
		return internalError(c)
	}
}

// POST /api/v1/families/:id/chat
func (h *ChatHandler) Send(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	m, err := h.svc.Send(c.Context(), userID, familyID, body.Content)
	if err != nil {
		return mapChatError(c, err)
	}
	return created(c, m)
}

// GET /api/v1/families/:id/chat
func (h *ChatHandler) List(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	var q struct {
		Page    int `query:"page"`
		PerPage int `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	result, err := h.svc.List(c.Context(), userID, familyID, chat.ListMessagesRequest{
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return mapChatError(c, err)
	}
	return paginated(c, "messages", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// GET /api/v1/families/:id/chat/stream  (Server-Sent Events)
func (h *ChatHandler) Stream(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	// The stream outlives the handler; the request context dies with it.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Context()))

	events, err := h.svc.Stream(ctx, userID, familyID)
	if err != nil {
		cancel()
		return mapChatError(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case ev := <-events:
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if _, err := w.WriteString("event: message\ndata: " + string(data) + "\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return // client gone
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})
}
