package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/service/vitals"
)

type VitalsHandler struct {
	svc vitals.Service
}

func NewVitalsHandler(svc vitals.Service) *VitalsHandler {
	return &VitalsHandler{svc: svc}
}

func mapVitalsError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, vitals.ErrVitalNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, vitals.ErrInvalidInput), errors.Is(err, vitals.ErrUnknownType):
		return badRequest(c, faMessage(err))
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrAccessDenied):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// POST /api/v1/patients/:id/vitals
func (h *VitalsHandler) Record(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var body struct {
		VitalType  string    `json:"vital_type"`
		Value      float64   `json:"value"`
		Unit       string    `json:"unit"`
		MeasuredAt time.Time `json:"measured_at"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	v, err := h.svc.Record(c.Context(), userID, patientID, vitals.RecordVitalRequest{
		VitalType:  body.VitalType,
		Value:      body.Value,
		Unit:       body.Unit,
		MeasuredAt: body.MeasuredAt,
	})
	if err != nil {
		return mapVitalsError(c, err)
	}
	return created(c, v)
}

// GET /api/v1/patients/:id/vitals
func (h *VitalsHandler) List(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var q struct {
		VitalType string    `query:"type"`
		From      time.Time `query:"from"`
		To        time.Time `query:"to"`
		Page      int       `query:"page"`
		PerPage   int       `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	result, err := h.svc.List(c.Context(), userID, patientID, vitals.ListVitalsRequest{
		VitalType: q.VitalType,
		From:      q.From,
		To:        q.To,
		Page:      q.Page,
		PerPage:   q.PerPage,
	})
	if err != nil {
		return mapVitalsError(c, err)
	}
	return paginated(c, "vitals", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// DELETE /api/v1/vitals/:id
func (h *VitalsHandler) Delete(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	vitalID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه علامت حیاتی نامعتبر است")
	}

	if err := h.svc.Delete(c.Context(), userID, vitalID); err != nil {
		return mapVitalsError(c, err)
	}
	return noContent(c)
}
