package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type PaginatedResult[T any] struct {
	Data       []T
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

type CreatePatientRequest struct {
	FullName    string
	DateOfBirth *time.Time
	Gender      *string
	BloodType   *string
	FamilyID    *uuid.UUID
}

type UpdatePatientRequest struct {
	FullName    *string
	DateOfBirth *time.Time
	Gender      *string
	BloodType   *string
}

type ListPatientsRequest struct {
	Page    int
	PerPage int
}

// ---------------------------------------------------------------------------
// Store dependencies
// ---------------------------------------------------------------------------

type PatientStore interface {
	Create(ctx context.Context, p *store.Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.Patient, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*store.Patient, int, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*store.Patient, error)
	Update(ctx context.Context, p *store.Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	SetFamily(ctx context.Context, patientID uuid.UUID, familyID *uuid.UUID) error
}

type MembershipStore interface {
	GetMember(ctx context.Context, familyID, userID uuid.UUID) (*store.FamilyMember, error)
}

type ShareGrantStore interface {
	GetActiveForUser(ctx context.Context, patientID, userID uuid.UUID) (*store.PatientShare, error)
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

// Access is the patient-visibility check shared by every patient-scoped
// service. Each method fails with ErrPatientNotFound for missing or
// soft-deleted patients and ErrAccessDenied when the user's grant is too
// weak. Creators and family members pass all three; a share grant passes
// according to its permission level.
type Access interface {
	// CanAccess covers reads. Any live grant qualifies, view_only included.
	CanAccess(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)
	// CanModify covers writes to medical data. Requires edit_access or
	// full_access when access comes through a share.
	CanModify(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)
	// CanManage covers destructive and sharing operations. Requires
	// full_access when access comes through a share.
	CanManage(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)
}

type Service interface {
	Access

	Create(ctx context.Context, userID uuid.UUID, req CreatePatientRequest) (*store.Patient, error)
	GetByID(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error)
	List(ctx context.Context, userID uuid.UUID, req ListPatientsRequest) (*PaginatedResult[*store.Patient], error)
	ListByFamily(ctx context.Context, userID, familyID uuid.UUID) ([]*store.Patient, error)
	Update(ctx context.Context, userID, patientID uuid.UUID, req UpdatePatientRequest) (*store.Patient, error)
	Delete(ctx context.Context, userID, patientID uuid.UUID) error
	AssignFamily(ctx context.Context, userID, patientID uuid.UUID, familyID *uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type patientService struct {
	patients PatientStore
	members  MembershipStore
	shares   ShareGrantStore
}

func New(patients PatientStore, members MembershipStore, shares ShareGrantStore) Service {
	return &patientService{patients: patients, members: members, shares: shares}
}

func (s *patientService) Create(ctx context.Context, userID uuid.UUID, req CreatePatientRequest) (*store.Patient, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, ErrInvalidInput
	}

	if req.FamilyID != nil {
		if _, err := s.members.GetMember(ctx, *req.FamilyID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFamilyMember
			}
			return nil, fmt.Errorf("check family membership: %w", err)
		}
	}

	p := &store.Patient{
		FullName:    name,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		BloodType:   req.BloodType,
		CreatedBy:   userID,
		FamilyID:    req.FamilyID,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

// permissionRank orders share permission levels from weakest to strongest.
var permissionRank = map[string]int{
	store.SharePermissionViewOnly:   1,
	store.SharePermissionEditAccess: 2,
	store.SharePermissionFullAccess: 3,
}

// authorize loads the patient and verifies the user holds a grant of at least
// minRank: creator and family membership outrank every share level; a live
// share counts by its permission.
func (s *patientService) authorize(ctx context.Context, userID, patientID uuid.UUID, minRank int) (*store.Patient, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if !p.IsActive {
		return nil, ErrPatientNotFound
	}
	if p.CreatedBy == userID {
		return p, nil
	}
	if p.FamilyID != nil {
		if _, err := s.members.GetMember(ctx, *p.FamilyID, userID); err == nil {
			return p, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check family membership: %w", err)
		}
	}
	sh, err := s.shares.GetActiveForUser(ctx, patientID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("check share grant: %w", err)
	}
	if permissionRank[sh.Permission] >= minRank {
		return p, nil
	}
	return nil, ErrAccessDenied
}

func (s *patientService) CanAccess(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error) {
	return s.authorize(ctx, userID, patientID, permissionRank[store.SharePermissionViewOnly])
}

func (s *patientService) CanModify(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error) {
	return s.authorize(ctx, userID, patientID, permissionRank[store.SharePermissionEditAccess])
}

func (s *patientService) CanManage(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error) {
	return s.authorize(ctx, userID, patientID, permissionRank[store.SharePermissionFullAccess])
}

func (s *patientService) GetByID(ctx context.Context, userID, patientID uuid.UUID) (*store.Patient, error) {
	return s.CanAccess(ctx, userID, patientID)
}

func (s *patientService) List(ctx context.Context, userID uuid.UUID, req ListPatientsRequest) (*PaginatedResult[*store.Patient], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	items, total, err := s.patients.ListByOwner(ctx, userID, req.PerPage, offset)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	totalPages := (total + req.PerPage - 1) / req.PerPage
	return &PaginatedResult[*store.Patient]{
		Data:       items,
		Total:      total,
		Page:       req.Page,
		PerPage:    req.PerPage,
		TotalPages: totalPages,
	}, nil
}

// ListByFamily returns the family's active patients. Any member may list
// them; per-patient visibility is the same membership check.
func (s *patientService) ListByFamily(ctx context.Context, userID, familyID uuid.UUID) ([]*store.Patient, error) {
	if _, err := s.members.GetMember(ctx, familyID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFamilyMember
		}
		return nil, fmt.Errorf("check family membership: %w", err)
	}
	items, err := s.patients.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family patients: %w", err)
	}
	return items, nil
}

func (s *patientService) Update(ctx context.Context, userID, patientID uuid.UUID, req UpdatePatientRequest) (*store.Patient, error) {
	p, err := s.CanModify(ctx, userID, patientID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, ErrInvalidInput
		}
		p.FullName = name
	}
	if req.DateOfBirth != nil {
		p.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		p.Gender = req.Gender
	}
	if req.BloodType != nil {
		p.BloodType = req.BloodType
	}

	if err := s.patients.Update(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

// Delete soft-deletes. The record and all child rows stay in place but the
// patient disappears from every listing and lookup.
func (s *patientService) Delete(ctx context.Context, userID, patientID uuid.UUID) error {
	if _, err := s.CanManage(ctx, userID, patientID); err != nil {
		return err
	}
	if err := s.patients.SoftDelete(ctx, patientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

// AssignFamily attaches or detaches (nil familyID) the patient to a family the
// user belongs to.
func (s *patientService) AssignFamily(ctx context.Context, userID, patientID uuid.UUID, familyID *uuid.UUID) error {
	if _, err := s.CanManage(ctx, userID, patientID); err != nil {
		return err
	}
	if familyID != nil {
		if _, err := s.members.GetMember(ctx, *familyID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFamilyMember
			}
			return fmt.Errorf("check family membership: %w", err)
		}
	}
	if err := s.patients.SetFamily(ctx, patientID, familyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("assign family: %w", err)
	}
	return nil
}
