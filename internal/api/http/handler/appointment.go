package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/daruyar/daruyar_backend/internal/service/appointment"
	"github.com/daruyar/daruyar_backend/internal/service/patient"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, appointment.ErrInvalidInput), errors.Is(err, appointment.ErrInvalidStatus):
		return badRequest(c, faMessage(err))
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrAccessDenied):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// POST /api/v1/patients/:id/appointments
func (h *AppointmentHandler) Create(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var body struct {
		Title           string    `json:"title"`
		DoctorName      *string   `json:"doctor_name"`
		Location        *string   `json:"location"`
		Notes           *string   `json:"notes"`
		ScheduledAt     time.Time `json:"scheduled_at"`
		ReminderMinutes int       `json:"reminder_minutes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	a, err := h.svc.Create(c.Context(), userID, patientID, appointment.CreateAppointmentRequest{
		Title:           body.Title,
		DoctorName:      body.DoctorName,
		Location:        body.Location,
		Notes:           body.Notes,
		ScheduledAt:     body.ScheduledAt,
		ReminderMinutes: body.ReminderMinutes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, a)
}

// GET /api/v1/patients/:id/appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var q struct {
		Upcoming bool `query:"upcoming"`
		Page     int  `query:"page"`
		PerPage  int  `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	result, err := h.svc.List(c.Context(), userID, patientID, appointment.ListAppointmentsRequest{
		UpcomingOnly: q.Upcoming,
		Page:         q.Page,
		PerPage:      q.PerPage,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return paginated(c, "appointments", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// GET /api/v1/appointments/:id
func (h *AppointmentHandler) Get(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	appointmentID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه نوبت نامعتبر است")
	}

	a, err := h.svc.GetByID(c.Context(), userID, appointmentID)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, a)
}

// PATCH /api/v1/appointments/:id
func (h *AppointmentHandler) Update(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	appointmentID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه نوبت نامعتبر است")
	}

	var body struct {
		Title           *string    `json:"title"`
		DoctorName      *string    `json:"doctor_name"`
		Location        *string    `json:"location"`
		Notes           *string    `json:"notes"`
		ScheduledAt     *time.Time `json:"scheduled_at"`
		ReminderMinutes *int       `json:"reminder_minutes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	a, err := h.svc.Update(c.Context(), userID, appointmentID, appointment.UpdateAppointmentRequest{
		Title:           body.Title,
		DoctorName:      body.DoctorName,
		Location:        body.Location,
		Notes:           body.Notes,
		ScheduledAt:     body.ScheduledAt,
		ReminderMinutes: body.ReminderMinutes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, a)
}

// PUT /api/v1/appointments/:id/status
func (h *AppointmentHandler) SetStatus(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	appointmentID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه نوبت نامعتبر است")
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	a, err := h.svc.SetStatus(c.Context(), userID, appointmentID, body.Status)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, a)
}

// DELETE /api/v1/appointments/:id
func (h *AppointmentHandler) Delete(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	appointmentID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه نوبت نامعتبر است")
	}

	if err := h.svc.Delete(c.Context(), userID, appointmentID); err != nil {
		return mapAppointmentError(c, err)
	}
	return noContent(c)
}
