package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrFamilyNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrInvalidInput):
		return badRequest(c, faMessage(err))
	case errors.Is(err, patient.ErrAccessDenied), errors.Is(err, patient.ErrNotFamilyMember):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

type patientBody struct {
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender"`
	BloodType   *string    `json:"blood_type"`
	FamilyID    *uuid.UUID `json:"family_id"`
}

// POST /api/v1/patients
func (h *PatientHandler) Create(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}

	var body patientBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	p, err := h.svc.Create(c.Context(), userID, patient.CreatePatientRequest{
		FullName:    body.FullName,
		DateOfBirth: body.DateOfBirth,
		Gender:      body.Gender,
		BloodType:   body.BloodType,
		FamilyID:    body.FamilyID,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return created(c, p)
}

// GET /api/v1/patients
func (h *PatientHandler) List(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}

	var q struct {
		Page    int `query:"page"`
		PerPage int `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	result, err := h.svc.List(c.Context(), userID, patient.ListPatientsRequest{
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return paginated(c, "patients", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// GET /api/v1/patients/:id
func (h *PatientHandler) Get(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	p, err := h.svc.GetByID(c.Context(), userID, patientID)
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// PATCH /api/v1/patients/:id
func (h *PatientHandler) Update(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var body struct {
		FullName    *string    `json:"full_name"`
		DateOfBirth *time.Time `json:"date_of_birth"`
		Gender      *string    `json:"gender"`
		BloodType   *string    `json:"blood_type"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	p, err := h.svc.Update(c.Context(), userID, patientID, patient.UpdatePatientRequest{
		FullName:    body.FullName,
		DateOfBirth: body.DateOfBirth,
		Gender:      body.Gender,
		BloodType:   body.BloodType,
	})
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, p)
}

// DELETE /api/v1/patients/:id
func (h *PatientHandler) Delete(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	if err := h.svc.Delete(c.Context(), userID, patientID); err != nil {
		return mapPatientError(c, err)
	}
	return noContent(c)
}

// GET /api/v1/families/:id/patients
func (h *PatientHandler) ListByFamily(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	familyID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه خانواده نامعتبر است")
	}

	items, err := h.svc.ListByFamily(c.Context(), userID, familyID)
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, fiber.Map{"patients": items})
}

// PUT /api/v1/patients/:id/family
func (h *PatientHandler) AssignFamily(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var body struct {
		FamilyID *uuid.UUID `json:"family_id"` // null detaches
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	if err := h.svc.AssignFamily(c.Context(), userID, patientID, body.FamilyID); err != nil {
		return mapPatientError(c, err)
	}
	return noContent(c)
}
