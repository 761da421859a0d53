package schedule

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

var timeSlotRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateScheduleRequest struct {
	MedicationID  uuid.UUID
	Dosage        float64
	FrequencyType string
	StartDate     time.Time
	EndDate       *time.Time
	TimeSlots     []string
}

type UpdateScheduleRequest struct {
	Dosage        *float64
	FrequencyType *string
	StartDate     *time.Time
	EndDate       *time.Time
	TimeSlots     []string
}

type ListSchedulesRequest struct {
	Page    int
	PerPage int
}

// ---------------------------------------------------------------------------
// Store dependencies
// ---------------------------------------------------------------------------

type ScheduleStore interface {
	Create(ctx context.Context, sc *store.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.Schedule, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*store.Schedule, int, error)
	Update(ctx context.Context, sc *store.Schedule) error
	SetStatus(ctx context.Context, id uuid.UUID, status string, lastTaken *time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type MedicineStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.Medicine, error)
}

type IntakeStore interface {
	Create(ctx context.Context, in *store.Intake) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, userID, patientID uuid.UUID, req CreateScheduleRequest) (*store.Schedule, error)
	GetByID(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error)
	List(ctx context.Context, userID, patientID uuid.UUID, req ListSchedulesRequest) (*patient.PaginatedResult[*store.Schedule], error)
	Update(ctx context.Context, userID, scheduleID uuid.UUID, req UpdateScheduleRequest) (*store.Schedule, error)
	Delete(ctx context.Context, userID, scheduleID uuid.UUID) error

	// Status transitions. Each overwrites the snapshot on the schedule row and
	// appends a row to the intake history, except ResetStatus which only
	// restores the snapshot.
	MarkTaken(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error)
	MarkMissed(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error)
	MarkSkipped(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error)
	ResetStatus(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type scheduleService struct {
	schedules ScheduleStore
	medicines MedicineStore
	intakes   IntakeStore
	access    patient.Access
	now       func() time.Time
}

func New(schedules ScheduleStore, medicines MedicineStore, intakes IntakeStore, access patient.Access) Service {
	return &scheduleService{
		schedules: schedules,
		medicines: medicines,
		intakes:   intakes,
		access:    access,
		now:       time.Now,
	}
}

func validateTimeSlots(slots []string) error {
	for _, s := range slots {
		if !timeSlotRe.MatchString(s) {
			return ErrInvalidTimeSlot
		}
	}
	return nil
}

func (s *scheduleService) Create(ctx context.Context, userID, patientID uuid.UUID, req CreateScheduleRequest) (*store.Schedule, error) {
	if _, err := s.access.CanModify(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if req.Dosage <= 0 || req.StartDate.IsZero() {
		return nil, ErrInvalidInput
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, ErrInvalidInput
	}
	if err := validateTimeSlots(req.TimeSlots); err != nil {
		return nil, err
	}

	m, err := s.medicines.GetByID(ctx, req.MedicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, fmt.Errorf("get medicine: %w", err)
	}
	if !m.IsActive || m.PatientID != patientID {
		return nil, ErrMedicineNotFound
	}

	slots := req.TimeSlots
	if slots == nil {
		slots = []string{}
	}
	sc := &store.Schedule{
		MedicationID:  req.MedicationID,
		PatientID:     patientID,
		Dosage:        req.Dosage,
		FrequencyType: req.FrequencyType,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		TimeSlots:     slots,
	}
	if err := s.schedules.Create(ctx, sc); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return sc, nil
}

type accessCheck func(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)

func (s *scheduleService) getOwned(ctx context.Context, userID, scheduleID uuid.UUID, check accessCheck) (*store.Schedule, error) {
	sc, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if !sc.IsActive {
		return nil, ErrScheduleNotFound
	}
	if _, err := check(ctx, userID, sc.PatientID); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *scheduleService) GetByID(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error) {
	return s.getOwned(ctx, userID, scheduleID, s.access.CanAccess)
}

func (s *scheduleService) List(ctx context.Context, userID, patientID uuid.UUID, req ListSchedulesRequest) (*patient.PaginatedResult[*store.Schedule], error) {
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

	items, total, err := s.schedules.ListByPatient(ctx, patientID, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	totalPages := (total + req.PerPage - 1) / req.PerPage
	return &patient.PaginatedResult[*store.Schedule]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: totalPages,
	}, nil
}

func (s *scheduleService) Update(ctx context.Context, userID, scheduleID uuid.UUID, req UpdateScheduleRequest) (*store.Schedule, error) {
	sc, err := s.getOwned(ctx, userID, scheduleID, s.access.CanModify)
	if err != nil {
		return nil, err
	}

	if req.Dosage != nil {
		if *req.Dosage <= 0 {
			return nil, ErrInvalidInput
		}
		sc.Dosage = *req.Dosage
	}
	if req.FrequencyType != nil {
		sc.FrequencyType = *req.FrequencyType
	}
	if req.StartDate != nil {
		sc.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		sc.EndDate = req.EndDate
	}
	if req.TimeSlots != nil {
		if err := validateTimeSlots(req.TimeSlots); err != nil {
			return nil, err
		}
		sc.TimeSlots = req.TimeSlots
	}
	if sc.EndDate != nil && sc.EndDate.Before(sc.StartDate) {
		return nil, ErrInvalidInput
	}

	if err := s.schedules.Update(ctx, sc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return sc, nil
}

func (s *scheduleService) Delete(ctx context.Context, userID, scheduleID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, scheduleID, s.access.CanModify); err != nil {
		return err
	}
	if err := s.schedules.SoftDelete(ctx, scheduleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// transition applies a snapshot overwrite and appends the matching intake row.
func (s *scheduleService) transition(ctx context.Context, userID, scheduleID uuid.UUID, status string, takenAt *time.Time) (*store.Schedule, error) {
	sc, err := s.getOwned(ctx, userID, scheduleID, s.access.CanModify)
	if err != nil {
		return nil, err
	}

	// Log first, then overwrite the snapshot: a failure in between leaves an
	// extra history row, never a status change the history missed.
	in := &store.Intake{
		ScheduleID:    scheduleID,
		ScheduledTime: s.now(),
		TakenTime:     takenAt,
		Status:        status,
	}
	if err := s.intakes.Create(ctx, in); err != nil {
		return nil, fmt.Errorf("log intake: %w", err)
	}

	if err := s.schedules.SetStatus(ctx, scheduleID, status, takenAt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("set schedule status: %w", err)
	}
	sc.Status = status
	sc.LastTaken = takenAt
	return sc, nil
}

func (s *scheduleService) MarkTaken(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error) {
	now := s.now()
	return s.transition(ctx, userID, scheduleID, store.ScheduleStatusTaken, &now)
}

func (s *scheduleService) MarkMissed(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error) {
	return s.transition(ctx, userID, scheduleID, store.ScheduleStatusMissed, nil)
}

func (s *scheduleService) MarkSkipped(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error) {
	return s.transition(ctx, userID, scheduleID, store.ScheduleStatusSkipped, nil)
}

// ResetStatus restores the pending snapshot. The intake history keeps whatever
// was logged before; nothing is appended or removed.
func (s *scheduleService) ResetStatus(ctx context.Context, userID, scheduleID uuid.UUID) (*store.Schedule, error) {
	sc, err := s.getOwned(ctx, userID, scheduleID, s.access.CanModify)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.SetStatus(ctx, scheduleID, store.ScheduleStatusPending, nil); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("reset schedule status: %w", err)
	}
	sc.Status = store.ScheduleStatusPending
	sc.LastTaken = nil
	return sc, nil
}
