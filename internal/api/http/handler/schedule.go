package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/intake"
	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/service/schedule"
	"github.com/daruyar/daruyar_backend/internal/store"
)

type ScheduleHandler struct {
	svc     schedule.Service
	intakes intake.Service
}

func NewScheduleHandler(svc schedule.Service, intakes intake.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, intakes: intakes}
}

func mapScheduleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, schedule.ErrScheduleNotFound), errors.Is(err, intake.ErrScheduleNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, schedule.ErrMedicineNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, schedule.ErrInvalidInput),
		errors.Is(err, schedule.ErrInvalidTimeSlot),
		errors.Is(err, intake.ErrInvalidStatus):
		return badRequest(c, faMessage(err))
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, faMessage(err))
	case errors.Is(err, patient.ErrAccessDenied):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// POST /api/v1/patients/:id/schedules
func (h *ScheduleHandler) Create(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	var body struct {
		MedicationID  uuid.UUID  `json:"medication_id"`
		Dosage        float64    `json:"dosage"`
		FrequencyType string     `json:"frequency_type"`
		StartDate     time.Time  `json:"start_date"`
		EndDate       *time.Time `json:"end_date"`
		TimeSlots     []string   `json:"time_slots"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	s, err := h.svc.Create(c.Context(), userID, patientID, schedule.CreateScheduleRequest{
		MedicationID:  body.MedicationID,
		Dosage:        body.Dosage,
		FrequencyType: body.FrequencyType,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
		TimeSlots:     body.TimeSlots,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}
	return created(c, s)
}

// GET /api/v1/patients/:id/schedules
func (h *ScheduleHandler) List(c fiber.Ctx) error {
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

	result, err := h.svc.List(c.Context(), userID, patientID, schedule.ListSchedulesRequest{
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}
	return paginated(c, "schedules", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// GET /api/v1/schedules/:id
func (h *ScheduleHandler) Get(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	scheduleID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه برنامه دارویی نامعتبر است")
	}

	s, err := h.svc.GetByID(c.Context(), userID, scheduleID)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, s)
}

// PATCH /api/v1/schedules/:id
func (h *ScheduleHandler) Update(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	scheduleID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه برنامه دارویی نامعتبر است")
	}

	var body struct {
		Dosage        *float64   `json:"dosage"`
		FrequencyType *string    `json:"frequency_type"`
		StartDate     *time.Time `json:"start_date"`
		EndDate       *time.Time `json:"end_date"`
		TimeSlots     []string   `json:"time_slots"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	s, err := h.svc.Update(c.Context(), userID, scheduleID, schedule.UpdateScheduleRequest{
		Dosage:        body.Dosage,
		FrequencyType: body.FrequencyType,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
		TimeSlots:     body.TimeSlots,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, s)
}

// DELETE /api/v1/schedules/:id
func (h *ScheduleHandler) Delete(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	scheduleID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه برنامه دارویی نامعتبر است")
	}

	if err := h.svc.Delete(c.Context(), userID, scheduleID); err != nil {
		return mapScheduleError(c, err)
	}
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Status transitions
// ---------------------------------------------------------------------------

func (h *ScheduleHandler) transition(c fiber.Ctx, fn func(uuid.UUID, uuid.UUID) (*store.Schedule, error)) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	scheduleID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه برنامه دارویی نامعتبر است")
	}

	s, err := fn(userID, scheduleID)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, s)
}

// POST /api/v1/schedules/:id/taken
func (h *ScheduleHandler) MarkTaken(c fiber.Ctx) error {
	return h.transition(c, func(userID, scheduleID uuid.UUID) (*store.Schedule, error) {
		return h.svc.MarkTaken(c.Context(), userID, scheduleID)
	})
}

// POST /api/v1/schedules/:id/missed
func (h *ScheduleHandler) MarkMissed(c fiber.Ctx) error {
	return h.transition(c, func(userID, scheduleID uuid.UUID) (*store.Schedule, error) {
		return h.svc.MarkMissed(c.Context(), userID, scheduleID)
	})
}

// POST /api/v1/schedules/:id/skipped
func (h *ScheduleHandler) MarkSkipped(c fiber.Ctx) error {
	return h.transition(c, func(userID, scheduleID uuid.UUID) (*store.Schedule, error) {
		return h.svc.MarkSkipped(c.Context(), userID, scheduleID)
	})
}

// POST /api/v1/schedules/:id/reset
func (h *ScheduleHandler) ResetStatus(c fiber.Ctx) error {
	return h.transition(c, func(userID, scheduleID uuid.UUID) (*store.Schedule, error) {
		return h.svc.ResetStatus(c.Context(), userID, scheduleID)
	})
}

// ---------------------------------------------------------------------------
// Intake history
// ---------------------------------------------------------------------------

func historyRequestFromQuery(c fiber.Ctx) intake.HistoryRequest {
	var q struct {
		From    time.Time `query:"from"`
		To      time.Time `query:"to"`
		Page    int       `query:"page"`
		PerPage int       `query:"per_page"`
	}
	_ = c.Bind().Query(&q)
	return intake.HistoryRequest{From: q.From, To: q.To, Page: q.Page, PerPage: q.PerPage}
}

// POST /api/v1/schedules/:id/intakes
func (h *ScheduleHandler) LogIntake(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	scheduleID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه برنامه دارویی نامعتبر است")
	}

	var body struct {
		ScheduledTime time.Time  `json:"scheduled_time"`
		TakenTime     *time.Time `json:"taken_time"`
		Status        string     `json:"status"`
		Notes         *string    `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "بدنه درخواست نامعتبر است")
	}

	rec, err := h.intakes.Log(c.Context(), userID, scheduleID, intake.LogIntakeRequest{
		ScheduledTime: body.ScheduledTime,
		TakenTime:     body.TakenTime,
		Status:        body.Status,
		Notes:         body.Notes,
	})
	if err != nil {
		return mapScheduleError(c, err)
	}
	return created(c, rec)
}

// GET /api/v1/schedules/:id/intakes
func (h *ScheduleHandler) IntakeHistory(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	scheduleID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه برنامه دارویی نامعتبر است")
	}

	result, err := h.intakes.HistoryBySchedule(c.Context(), userID, scheduleID, historyRequestFromQuery(c))
	if err != nil {
		return mapScheduleError(c, err)
	}
	return paginated(c, "intakes", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}

// GET /api/v1/patients/:id/intakes
func (h *ScheduleHandler) PatientIntakeHistory(c fiber.Ctx) error {
	userID, valid := authUserID(c)
	if !valid {
		return unauthorized(c)
	}
	patientID, valid := idParam(c, "id")
	if !valid {
		return badRequest(c, "شناسه بیمار نامعتبر است")
	}

	result, err := h.intakes.HistoryByPatient(c.Context(), userID, patientID, historyRequestFromQuery(c))
	if err != nil {
		return mapScheduleError(c, err)
	}
	return paginated(c, "intakes", result.Data, result.Total, result.Page, result.PerPage, result.TotalPages)
}
