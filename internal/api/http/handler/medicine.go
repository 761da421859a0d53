package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/medicine"
	"github.com/daruyar/daruyar_backend/internal/service/patient"
)

type MedicineHandler struct {
	svc medicine.Service
}

func NewMedicineHandler(svc medicine.Service) *MedicineHandler {
	return &MedicineHandler{svc: svc}
}

func mapMedicineError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, medicine.ErrMedicineNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, medicine.ErrInvalidInput):
		return badRequest(c, faMessage(err))
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrAccessDenied):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// POST /api/v1/patients/:id/medicines
func (h *MedicineHandler) Create(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var body struct {
		Name           string     `json:"name"`
		Type           string     `json:"type"`
		DosageForm     string     `json:"dosage_form"`
		Strength       string     `json:"strength"`
		Quantity       int        `json:"quantity"`
		ExpirationDate *time.Time `json:"expiration_date"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	m, err := h.svc.Create(c.Context(), userID, patientID, medicine.CreateMedicineRequest{
		Name:           body.Name,
		Type:           body.Type,
		DosageForm:     body.DosageForm,
		Strength:       body.Strength,
		Quantity:       body.Quantity,
		ExpirationDate: body.ExpirationDate,
	})
	if err != nil {
		return mapMedicineError(c, err)
	}
	return created(c, m)
}

// GET /api/v1/patients/:id/medicines
func (h *MedicineHandler) List(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var q struct {
		Page    int `query:"page"`
		PerPage int `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	result, err := h.svc.List(c.Context(), userID, patientID, medicine.ListMedicinesRequest{
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return mapMedicineError(c, err)
	}
	return paginated(c, "medicines", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// GET /api/v1/medicines/:id
func (h *MedicineHandler) Get(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	medicineID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه دارو نامعتبر است")
	}

	m, err := h.svc.GetByID(c.Context(), userID, medicineID)
	if err != nil {
		return mapMedicineError(c, err)
	}
	return ok(c, m)
}

// PATCH /api/v1/medicines/:id
func (h *MedicineHandler) Update(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	medicineID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه دارو نامعتبر است")
	}

	var body struct {
		Name           *string    `json:"name"`
		Type           *string    `json:"type"`
		DosageForm     *string    `json:"dosage_form"`
		Strength       *string    `json:"strength"`
		Quantity       *int       `json:"quantity"`
		ExpirationDate *time.Time `json:"expiration_date"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	m, err := h.svc.Update(c.Context(), userID, medicineID, medicine.UpdateMedicineRequest{
		Name:           body.Name,
		Type:           body.Type,
		DosageForm:     body.DosageForm,
		Strength:       body.Strength,
		Quantity:       body.Quantity,
		ExpirationDate: body.ExpirationDate,
	})
	if err != nil {
		return mapMedicineError(c, err)
	}
	return ok(c, m)
}

// DELETE /api/v1/medicines/:id
func (h *MedicineHandler) Delete(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	medicineID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه دارو نامعتبر است")
	}

	if err := h.svc.Delete(c.Context(), userID, medicineID); err != nil {
		return mapMedicineError(c, err)
	}
	return noContent(c)
}
