package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/service/share"
)

type ShareHandler struct {
	svc share.Service
}

func NewShareHandler(svc share.Service) *ShareHandler {
	return &ShareHandler{svc: svc}
}

func mapShareError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, share.ErrShareNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, share.ErrInvalidPermission), errors.Is(err, share.ErrInvalidExpiry):
		return badRequest(c, faMessage(err))
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrAccessDenied):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// POST /api/v1/patients/:id/shares
func (h *ShareHandler) Create(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var body struct {
		SharedWith *uuid.UUID `json:"shared_with"`
		Permission string     `json:"permission"`
		ExpiresAt  *time.Time `json:"expires_at"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	sh, err := h.svc.Create(c.Context(), userID, patientID, share.CreateShareRequest{
		SharedWith: body.SharedWith,
		Permission: body.Permission,
		ExpiresAt:  body.ExpiresAt,
	})
	if err != nil {
		return mapShareError(c, err)
	}
	return created(c, sh)
}

// GET /api/v1/patients/:id/shares
func (h *ShareHandler) List(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	shares, err := h.svc.ListForPatient(c.Context(), userID, patientID)
	if err != nil {
		return mapShareError(c, err)
	}
	return ok(c, shares)
}

// DELETE /api/v1/shares/:id
func (h *ShareHandler) Revoke(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	shareID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه اشتراک‌گذاری نامعتبر است")
	}

	if err := h.svc.Revoke(c.Context(), userID, shareID); err != nil {
		return mapShareError(c, err)
	}
	return noContent(c)
}

// GET /shared/:token  (public, no auth)
func (h *ShareHandler) Resolve(c fiber.Ctx) error {
	snap, err := h.svc.Resolve(c.Context(), c.Params("token"))
	if err != nil {
		return mapShareError(c, err)
	}
	return ok(c, fiber.Map{
		"patient":    snap.Patient,
		"permission": snap.Permission,
	})
}
