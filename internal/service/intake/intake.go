package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type LogIntakeRequest struct {
	ScheduledTime time.Time
	TakenTime     *time.Time
	Status        string
	Notes         *string
}

type HistoryRequest struct {
	From    time.Time
	To      time.Time
	Page    int
	PerPage int
}

// ---------------------------------------------------------------------------
// Store dependencies
// ---------------------------------------------------------------------------

type IntakeStore interface {
	Create(ctx context.Context, in *store.Intake) error
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID, from, to time.Time, limit, offset int) ([]*store.Intake, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, from, to time.Time, limit, offset int) ([]*store.Intake, int, error)
}

type ScheduleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.Schedule, error)
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

// Service is the append-only intake log. Rows written here are never edited
// and never folded back into the schedule snapshot.
type Service interface {
	Log(ctx context.Context, userID, scheduleID uuid.UUID, req LogIntakeRequest) (*store.Intake, error)
	HistoryBySchedule(ctx context.Context, userID, scheduleID uuid.UUID, req HistoryRequest) (*patient.PaginatedResult[*store.Intake], error)
	HistoryByPatient(ctx context.Context, userID, patientID uuid.UUID, req HistoryRequest) (*patient.PaginatedResult[*store.Intake], error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type intakeService struct {
	intakes   IntakeStore
	schedules ScheduleStore
	access    patient.Access
}

func New(intakes IntakeStore, schedules ScheduleStore, access patient.Access) Service {
	return &intakeService{intakes: intakes, schedules: schedules, access: access}
}

func validStatus(s string) bool {
	switch s {
	case store.IntakeStatusScheduled, store.IntakeStatusTaken,
		store.IntakeStatusMissed, store.IntakeStatusSkipped:
		return true
	}
	return false
}

type accessCheck func(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)

// resolveSchedule loads the schedule and runs the given patient access check.
// The schedule may be soft-deleted: history stays reachable for record-keeping.
func (s *intakeService) resolveSchedule(ctx context.Context, userID, scheduleID uuid.UUID, check accessCheck) (*store.Schedule, error) {
	sc, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if _, err := check(ctx, userID, sc.PatientID); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *intakeService) Log(ctx context.Context, userID, scheduleID uuid.UUID, req LogIntakeRequest) (*store.Intake, error) {
	sc, err := s.resolveSchedule(ctx, userID, scheduleID, s.access.CanModify)
	if err != nil {
		return nil, err
	}
	if !sc.IsActive {
		return nil, ErrScheduleNotFound
	}
	if req.Status != "" && !validStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	in := &store.Intake{
		ScheduleID:    scheduleID,
		ScheduledTime: req.ScheduledTime,
		TakenTime:     req.TakenTime,
		Status:        req.Status,
		Notes:         req.Notes,
	}
	if in.ScheduledTime.IsZero() {
		in.ScheduledTime = time.Now()
	}
	if err := s.intakes.Create(ctx, in); err != nil {
		return nil, fmt.Errorf("log intake: %w", err)
	}
	return in, nil
}

func normalizePage(req *HistoryRequest) int {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 200 {
		req.PerPage = 50
	}
	return (req.Page - 1) * req.PerPage
}

func (s *intakeService) HistoryBySchedule(ctx context.Context, userID, scheduleID uuid.UUID, req HistoryRequest) (*patient.PaginatedResult[*store.Intake], error) {
	if _, err := s.resolveSchedule(ctx, userID, scheduleID, s.access.CanAccess); err != nil {
		return nil, err
	}
	offset := normalizePage(&req)

	items, total, err := s.intakes.ListBySchedule(ctx, scheduleID, req.From, req.To, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list intake history: %w", err)
	}
	return paginate(items, total, req), nil
}

func (s *intakeService) HistoryByPatient(ctx context.Context, userID, patientID uuid.UUID, req HistoryRequest) (*patient.PaginatedResult[*store.Intake], error) {
	if _, err := s.access.CanAccess(ctx, userID, patientID); err != nil {
		return nil, err
	}
	offset := normalizePage(&req)

	items, total, err := s.intakes.ListByPatient(ctx, patientID, req.From, req.To, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list intake history: %w", err)
	}
	return paginate(items, total, req), nil
}

func paginate(items []*store.Intake, total int, req HistoryRequest) *patient.PaginatedResult[*store.Intake] {
	return &patient.PaginatedResult[*store.Intake]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: (total + req.PerPage - 1) / req.PerPage,
	}
}
