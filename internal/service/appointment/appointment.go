package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateAppointmentRequest struct {
	Title           string
	DoctorName      *string
	Location        *string
	Notes           *string
	ScheduledAt     time.Time
	ReminderMinutes int
}

type UpdateAppointmentRequest struct {
	Title           *string
	DoctorName      *string
	Location        *string
	Notes           *string
	ScheduledAt     *time.Time
	ReminderMinutes *int
}

type ListAppointmentsRequest struct {
	UpcomingOnly bool
	Page         int
	PerPage      int
}

// ---------------------------------------------------------------------------
// Store dependency
// ---------------------------------------------------------------------------

type AppointmentStore interface {
	Create(ctx context.Context, a *store.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, upcomingOnly bool, limit, offset int) ([]*store.Appointment, int, error)
	Update(ctx context.Context, a *store.Appointment) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, userID, patientID uuid.UUID, req CreateAppointmentRequest) (*store.Appointment, error)
	GetByID(ctx context.Context, userID, appointmentID uuid.UUID) (*store.Appointment, error)
	List(ctx context.Context, userID, patientID uuid.UUID, req ListAppointmentsRequest) (*patient.PaginatedResult[*store.Appointment], error)
	Update(ctx context.Context, userID, appointmentID uuid.UUID, req UpdateAppointmentRequest) (*store.Appointment, error)
	SetStatus(ctx context.Context, userID, appointmentID uuid.UUID, status string) (*store.Appointment, error)
	Delete(ctx context.Context, userID, appointmentID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	appointments AppointmentStore
	access       patient.Access
}

func New(appointments AppointmentStore, access patient.Access) Service {
	return &appointmentService{appointments: appointments, access: access}
}

func (s *appointmentService) Create(ctx context.Context, userID, patientID uuid.UUID, req CreateAppointmentRequest) (*store.Appointment, error) {
	if _, err := s.access.CanModify(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" || req.ScheduledAt.IsZero() || req.ReminderMinutes < 0 {
		return nil, ErrInvalidInput
	}

	a := &store.Appointment{
		PatientID:       patientID,
		Title:           strings.TrimSpace(req.Title),
		DoctorName:      req.DoctorName,
		Location:        req.Location,
		Notes:           req.Notes,
		ScheduledAt:     req.ScheduledAt,
		ReminderMinutes: req.ReminderMinutes,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return a, nil
}

type accessCheck func(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)

func (s *appointmentService) getOwned(ctx context.Context, userID, appointmentID uuid.UUID, check accessCheck) (*store.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if _, err := check(ctx, userID, a.PatientID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *appointmentService) GetByID(ctx context.Context, userID, appointmentID uuid.UUID) (*store.Appointment, error) {
	return s.getOwned(ctx, userID, appointmentID, s.access.CanAccess)
}

func (s *appointmentService) List(ctx context.Context, userID, patientID uuid.UUID, req ListAppointmentsRequest) (*patient.PaginatedResult[*store.Appointment], error) {
	if _, err := s.access.CanAccess(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	items, total, err := s.appointments.ListByPatient(ctx, patientID, req.UpcomingOnly, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	return &patient.PaginatedResult[*store.Appointment]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: (total + req.PerPage - 1) / req.PerPage,
	}, nil
}

func (s *appointmentService) Update(ctx context.Context, userID, appointmentID uuid.UUID, req UpdateAppointmentRequest) (*store.Appointment, error) {
	a, err := s.getOwned(ctx, userID, appointmentID, s.access.CanModify)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrInvalidInput
		}
		a.Title = title
	}
	if req.DoctorName != nil {
		a.DoctorName = req.DoctorName
	}
	if req.Location != nil {
		a.Location = req.Location
	}
	if req.Notes != nil {
		a.Notes = req.Notes
	}
	if req.ScheduledAt != nil {
		a.ScheduledAt = *req.ScheduledAt
	}
	if req.ReminderMinutes != nil {
		if *req.ReminderMinutes < 0 {
			return nil, ErrInvalidInput
		}
		a.ReminderMinutes = *req.ReminderMinutes
	}

	if err := s.appointments.Update(ctx, a); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	a.ReminderSent = false
	return a, nil
}

func (s *appointmentService) SetStatus(ctx context.Context, userID, appointmentID uuid.UUID, status string) (*store.Appointment, error) {
	switch status {
	case store.AppointmentStatusScheduled, store.AppointmentStatusCompleted, store.AppointmentStatusCancelled:
	default:
		return nil, ErrInvalidStatus
	}

	a, err := s.getOwned(ctx, userID, appointmentID, s.access.CanModify)
	if err != nil {
		return nil, err
	}
	if err := s.appointments.SetStatus(ctx, appointmentID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("set appointment status: %w", err)
	}
	a.Status = status
	return a, nil
}

// Delete hard-deletes the appointment.
func (s *appointmentService) Delete(ctx context.Context, userID, appointmentID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, appointmentID, s.access.CanModify); err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, appointmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}
