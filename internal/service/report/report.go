package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// AdherenceReport summarizes intake outcomes over a period.
type AdherenceReport struct {
	PatientID uuid.UUID `json:"patient_id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Taken     int       `json:"taken"`
	Missed    int       `json:"missed"`
	Skipped   int       `json:"skipped"`
	Pending   int       `json:"pending"`
	// AdherencePercent is taken / (taken + missed), ignoring skipped and
	// pending doses. Zero when there is nothing to measure.
	AdherencePercent float64 `json:"adherence_percent"`
}

// InventoryReport lists medicines that are running low or close to expiry.
type InventoryReport struct {
	PatientID      uuid.UUID         `json:"patient_id"`
	LowQuantity    int               `json:"low_quantity_threshold"`
	ExpiringBefore time.Time         `json:"expiring_before"`
	Medicines      []*store.Medicine `json:"medicines"`
}

// VitalsSeries is one vital type over a period, oldest first.
type VitalsSeries struct {
	PatientID uuid.UUID      `json:"patient_id"`
	VitalType string         `json:"vital_type"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	Points    []*store.Vital `json:"points"`
}

// ---------------------------------------------------------------------------
// Store dependencies
// ---------------------------------------------------------------------------

type IntakeStore interface {
	Adherence(ctx context.Context, patientID uuid.UUID, from, to time.Time) (*store.AdherenceCounts, error)
}

type MedicineStore interface {
	ListExpiringOrLow(ctx context.Context, patientID uuid.UUID, lowQuantity int, expiringBefore time.Time) ([]*store.Medicine, error)
}

type VitalStore interface {
	List(ctx context.Context, patientID uuid.UUID, vitalType string, from, to time.Time, limit, offset int) ([]*store.Vital, int, error)
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Adherence(ctx context.Context, userID, patientID uuid.UUID, from, to time.Time) (*AdherenceReport, error)
	Inventory(ctx context.Context, userID, patientID uuid.UUID, lowQuantity, expiringWithinDays int) (*InventoryReport, error)
	Vitals(ctx context.Context, userID, patientID uuid.UUID, vitalType string, from, to time.Time) (*VitalsSeries, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

const (
	defaultLowQuantity    = 5
	defaultExpiryDays     = 30
	maxVitalsSeriesPoints = 1000
)

type reportService struct {
	intakes   IntakeStore
	medicines MedicineStore
	vitals    VitalStore
	access    patient.Access
	now       func() time.Time
}

func New(intakes IntakeStore, medicines MedicineStore, vitals VitalStore, access patient.Access) Service {
	return &reportService{
		intakes:   intakes,
		medicines: medicines,
		vitals:    vitals,
		access:    access,
		now:       time.Now,
	}
}

// normalizeRange defaults to the last 30 days.
func (s *reportService) normalizeRange(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return from, to
}

func (s *reportService) Adherence(ctx context.Context, userID, patientID uuid.UUID, from, to time.Time) (*AdherenceReport, error) {
	if _, err := s.access.CanAccess(ctx, userID, patientID); err != nil {
		return nil, err
	}
	from, to = s.normalizeRange(from, to)

	c, err := s.intakes.Adherence(ctx, patientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("adherence counts: %w", err)
	}

	r := &AdherenceReport{
		PatientID: patientID,
		From:      from,
		To:        to,
		Taken:     c.Taken,
		Missed:    c.Missed,
		Skipped:   c.Skipped,
		Pending:   c.Pending,
	}
	if denom := c.Taken + c.Missed; denom > 0 {
		r.AdherencePercent = float64(c.Taken) / float64(denom) * 100
	}
	return r, nil
}

func (s *reportService) Inventory(ctx context.Context, userID, patientID uuid.UUID, lowQuantity, expiringWithinDays int) (*InventoryReport, error) {
	if _, err := s.access.CanAccess(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if lowQuantity < 1 {
		lowQuantity = defaultLowQuantity
	}
	if expiringWithinDays < 1 {
		expiringWithinDays = defaultExpiryDays
	}
	before := s.now().AddDate(0, 0, expiringWithinDays)

	meds, err := s.medicines.ListExpiringOrLow(ctx, patientID, lowQuantity, before)
	if err != nil {
		return nil, fmt.Errorf("inventory scan: %w", err)
	}

	return &InventoryReport{
		PatientID:      patientID,
		LowQuantity:    lowQuantity,
		ExpiringBefore: before,
		Medicines:      meds,
	}, nil
}

func (s *reportService) Vitals(ctx context.Context, userID, patientID uuid.UUID, vitalType string, from, to time.Time) (*VitalsSeries, error) {
	if _, err := s.access.CanAccess(ctx, userID, patientID); err != nil {
		return nil, err
	}
	from, to = s.normalizeRange(from, to)

	points, _, err := s.vitals.List(ctx, patientID, vitalType, from, to, maxVitalsSeriesPoints, 0)
	if err != nil {
		return nil, fmt.Errorf("vitals series: %w", err)
	}

	// The store returns newest first; a series reads oldest first.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return &VitalsSeries{
		PatientID: patientID,
		VitalType: vitalType,
		From:      from,
		To:        to,
		Points:    points,
	}, nil
}
