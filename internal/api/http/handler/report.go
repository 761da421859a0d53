package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/service/report"
)

type ReportHandler struct {
	svc report.Service
}

func NewReportHandler(svc report.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func mapReportError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrAccessDenied):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// GET /api/v1/patients/:id/reports/adherence
func (h *ReportHandler) Adherence(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var q struct {
		From time.Time `query:"from"`
		To   time.Time `query:"to"`
	}
	_ = c.Bind().Query(&q)

	r, err := h.svc.Adherence(c.Context(), userID, patientID, q.From, q.To)
	if err != nil {
		return mapReportError(c, err)
	}
	return ok(c, r)
}

// GET /api/v1/patients/:id/reports/inventory
func (h *ReportHandler) Inventory(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var q struct {
		LowQuantity  int `query:"low_quantity"`
		ExpiringDays int `query:"expiring_days"`
	}
	_ = c.Bind().Query(&q)

	r, err := h.svc.Inventory(c.Context(), userID, patientID, q.LowQuantity, q.ExpiringDays)
	if err != nil {
		return mapReportError(c, err)
	}
	return ok(c, r)
}

// GET /api/v1/patients/:id/reports/vitals
func (h *ReportHandler) Vitals(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var q struct {
		Type string    `query:"type"`
		From time.Time `query:"from"`
		To   time.Time `query:"to"`
	}
	_ = c.Bind().Query(&q)
	if q.Type == "" {
		return badRequest(c, "نوع علامت حیاتی الزامی است")
	}

	r, err := h.svc.Vitals(c.Context(), userID, patientID, q.Type, q.From, q.To)
	if err != nil {
		return mapReportError(c, err)
	}
	return ok(c, r)
}
