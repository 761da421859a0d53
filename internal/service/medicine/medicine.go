package medicine

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

type CreateMedicineRequest struct {
	Name           string
	Type           string
	DosageForm     string
	Strength       string
	Quantity       int
	ExpirationDate *time.Time
}

type UpdateMedicineRequest struct {
	Name           *string
	Type           *string
	DosageForm     *string
	Strength       *string
	Quantity       *int
	ExpirationDate *time.Time
}

type ListMedicinesRequest struct {
	Page    int
	PerPage int
}

const (
	// lowStockThreshold marks medicines the patient should restock.
	lowStockThreshold = 5
	// nearExpiryDays marks medicines expiring within the window.
	nearExpiryDays = 30
)

// Medicine is a store row plus the derived stock flags shown in listings.
type Medicine struct {
	*store.Medicine
	LowStock   bool `json:"low_stock"`
	NearExpiry bool `json:"near_expiry"`
}

func withFlags(m *store.Medicine, now time.Time) *Medicine {
	v := &Medicine{Medicine: m, LowStock: m.Quantity <= lowStockThreshold}
	if m.ExpirationDate != nil && m.ExpirationDate.Before(now.AddDate(0, 0, nearExpiryDays)) {
		v.NearExpiry = true
	}
	return v
}

// ---------------------------------------------------------------------------
// Store dependency
// ---------------------------------------------------------------------------

type MedicineStore interface {
	Create(ctx context.Context, m *store.Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.Medicine, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*store.Medicine, int, error)
	Update(ctx context.Context, m *store.Medicine) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, userID, patientID uuid.UUID, req CreateMedicineRequest) (*store.Medicine, error)
	GetByID(ctx context.Context, userID, medicineID uuid.UUID) (*store.Medicine, error)
	List(ctx context.Context, userID, patientID uuid.UUID, req ListMedicinesRequest) (*patient.PaginatedResult[*Medicine], error)
	Update(ctx context.Context, userID, medicineID uuid.UUID, req UpdateMedicineRequest) (*store.Medicine, error)
	Delete(ctx context.Context, userID, medicineID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type medicineService struct {
	medicines MedicineStore
	access    patient.Access
}

func New(medicines MedicineStore, access patient.Access) Service {
	return &medicineService{medicines: medicines, access: access}
}

func (s *medicineService) Create(ctx context.Context, userID, patientID uuid.UUID, req CreateMedicineRequest) (*store.Medicine, error) {
	if _, err := s.access.CanModify(ctx, userID, patientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" || req.Quantity < 0 {
		return nil, ErrInvalidInput
	}

	m := &store.Medicine{
		PatientID:      patientID,
		Name:           strings.TrimSpace(req.Name),
		Type:           req.Type,
		DosageForm:     req.DosageForm,
		Strength:       req.Strength,
		Quantity:       req.Quantity,
		ExpirationDate: req.ExpirationDate,
	}
	if err := s.medicines.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create medicine: %w", err)
	}
	return m, nil
}

type accessCheck func(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)

// getOwned loads the medicine and runs the given patient access check, hiding
// soft-deleted rows.
func (s *medicineService) getOwned(ctx context.Context, userID, medicineID uuid.UUID, check accessCheck) (*store.Medicine, error) {
	m, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, fmt.Errorf("get medicine: %w", err)
	}
	if !m.IsActive {
		return nil, ErrMedicineNotFound
	}
	if _, err := check(ctx, userID, m.PatientID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *medicineService) GetByID(ctx context.Context, userID, medicineID uuid.UUID) (*store.Medicine, error) {
	return s.getOwned(ctx, userID, medicineID, s.access.CanAccess)
}

func (s *medicineService) List(ctx context.Context, userID, patientID uuid.UUID, req ListMedicinesRequest) (*patient.PaginatedResult[*Medicine], error) {
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

	items, total, err := s.medicines.ListByPatient(ctx, patientID, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}

	now := time.Now()
	flagged := make([]*Medicine, 0, len(items))
	for _, m := range items {
		flagged = append(flagged, withFlags(m, now))
	}

	totalPages := (total + req.PerPage - 1) / req.PerPage
	return &patient.PaginatedResult[*Medicine]{
		Data:       flagged,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: totalPages,
	}, nil
}

func (s *medicineService) Update(ctx context.Context, userID, medicineID uuid.UUID, req UpdateMedicineRequest) (*store.Medicine, error) {
	m, err := s.getOwned(ctx, userID, medicineID, s.access.CanModify)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		m.Name = name
	}
	if req.Type != nil {
		m.Type = *req.Type
	}
	if req.DosageForm != nil {
		m.DosageForm = *req.DosageForm
	}
	if req.Strength != nil {
		m.Strength = *req.Strength
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, ErrInvalidInput
		}
		m.Quantity = *req.Quantity
	}
	if req.ExpirationDate != nil {
		m.ExpirationDate = req.ExpirationDate
	}

	if err := s.medicines.Update(ctx, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, fmt.Errorf("update medicine: %w", err)
	}
	return m, nil
}

// Delete soft-deletes the medicine. Schedules referencing it keep their rows.
func (s *medicineService) Delete(ctx context.Context, userID, medicineID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, medicineID, s.access.CanModify); err != nil {
		return err
	}
	if err := s.medicines.SoftDelete(ctx, medicineID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMedicineNotFound
		}
		return fmt.Errorf("delete medicine: %w", err)
	}
	return nil
}
