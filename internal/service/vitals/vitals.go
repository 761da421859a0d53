package vitals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

// Known vital types with their default units.
var DefaultUnits = map[string]string{
	"blood_pressure_systolic":  "mmHg",
	"blood_pressure_diastolic": "mmHg",
	"heart_rate":               "bpm",
	"blood_sugar":              "mg/dL",
	"temperature":              "°C",
	"weight":                   "kg",
	"oxygen_saturation":        "%",
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type RecordVitalRequest struct {
	VitalType  string
	Value      float64
	Unit       string
	MeasuredAt time.Time
}

type ListVitalsRequest struct {
	VitalType string
	From      time.Time
	To        time.Time
	Page      int
	PerPage   int
}

// ---------------------------------------------------------------------------
// Store dependency
// ---------------------------------------------------------------------------

type VitalStore interface {
	Create(ctx context.Context, v *store.Vital) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.Vital, error)
	List(ctx context.Context, patientID uuid.UUID, vitalType string, from, to time.Time, limit, offset int) ([]*store.Vital, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Record(ctx context.Context, userID, patientID uuid.UUID, req RecordVitalRequest) (*store.Vital, error)
	List(ctx context.Context, userID, patientID uuid.UUID, req ListVitalsRequest) (*patient.PaginatedResult[*store.Vital], error)
	Delete(ctx context.Context, userID, vitalID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type vitalService struct {
	vitals VitalStore
	access patient.Access
}

func New(vitals VitalStore, access patient.Access) Service {
	return &vitalService{vitals: vitals, access: access}
}

func (s *vitalService) Record(ctx context.Context, userID, patientID uuid.UUID, req RecordVitalRequest) (*store.Vital, error) {
	if _, err := s.access.CanModify(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if req.VitalType == "" {
		return nil, ErrInvalidInput
	}

	unit := req.Unit
	if unit == "" {
		def, ok := DefaultUnits[req.VitalType]
		if !ok {
			return nil, ErrUnknownType
		}
		unit = def
	}
	measuredAt := req.MeasuredAt
	if measuredAt.IsZero() {
		measuredAt = time.Now()
	}

	v := &store.Vital{
		PatientID:  patientID,
		VitalType:  req.VitalType,
		Value:      req.Value,
		Unit:       unit,
		MeasuredAt: measuredAt,
	}
	if err := s.vitals.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("record vital: %w", err)
	}
	return v, nil
}

func (s *vitalService) List(ctx context.Context, userID, patientID uuid.UUID, req ListVitalsRequest) (*patient.PaginatedResult[*store.Vital], error) {
	if _, err := s.access.CanAccess(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 200 {
		req.PerPage = 50
	}
	offset := (req.Page - 1) * req.PerPage

	items, total, err := s.vitals.List(ctx, patientID, req.VitalType, req.From, req.To, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list vitals: %w", err)
	}

	return &patient.PaginatedResult[*store.Vital]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: (total + req.PerPage - 1) / req.PerPage,
	}, nil
}

// Delete hard-deletes the measurement.
func (s *vitalService) Delete(ctx context.Context, userID, vitalID uuid.UUID) error {
	v, err := s.vitals.GetByID(ctx, vitalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrVitalNotFound
		}
		return fmt.Errorf("get vital: %w", err)
	}
	if _, err := s.access.CanModify(ctx, userID, v.PatientID); err != nil {
		return err
	}
	if err := s.vitals.Delete(ctx, vitalID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrVitalNotFound
		}
		return fmt.Errorf("delete vital: %w", err)
	}
	return nil
}
