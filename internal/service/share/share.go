package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
	"github.com/daruyar/daruyar_backend/pkg/util/codes"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateShareRequest struct {
	SharedWith *uuid.UUID
	Permission string
	ExpiresAt  *time.Time
}

// Grant is what a validated token resolves to.
type Grant struct {
	PatientID  uuid.UUID
	Permission string
}

// Snapshot is the read-only patient view returned for a share token.
type Snapshot struct {
	Patient    *store.Patient
	Permission string
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

type ShareStore interface {
	Create(ctx context.Context, sh *store.PatientShare) error
	GetByToken(ctx context.Context, token string) (*store.PatientShare, error)
	GetByID(ctx context.Context, id uuid.UUID) (*store.PatientShare, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*store.PatientShare, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type PatientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.Patient, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *store.Notification) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, userID, patientID uuid.UUID, req CreateShareRequest) (*store.PatientShare, error)
	ListForPatient(ctx context.Context, userID, patientID uuid.UUID) ([]*store.PatientShare, error)
	Revoke(ctx context.Context, userID, shareID uuid.UUID) error

	// ValidateToken resolves a token to its grant. It returns (nil, nil) for
	// unknown, revoked, and expired tokens alike; the caller cannot tell the
	// cases apart.
	ValidateToken(ctx context.Context, token string) (*Grant, error)

	// Resolve serves the public share endpoint: token in, read-only patient
	// snapshot out.
	Resolve(ctx context.Context, token string) (*Snapshot, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type shareService struct {
	shares        ShareStore
	patients      PatientStore
	access        patient.Access
	notifications NotificationStore
	logger        *slog.Logger
	tokenByteLen  int
	now           func() time.Time
}

func New(shares ShareStore, patients PatientStore, access patient.Access, notifications NotificationStore, logger *slog.Logger, tokenByteLen int) Service {
	return &shareService{
		shares:        shares,
		patients:      patients,
		access:        access,
		notifications: notifications,
		logger:        logger,
		tokenByteLen:  tokenByteLen,
		now:           time.Now,
	}
}

func validPermission(p string) bool {
	switch p {
	case store.SharePermissionViewOnly, store.SharePermissionEditAccess, store.SharePermissionFullAccess:
		return true
	}
	return false
}

func (s *shareService) Create(ctx context.Context, userID, patientID uuid.UUID, req CreateShareRequest) (*store.PatientShare, error) {
	p, err := s.access.CanManage(ctx, userID, patientID)
	if err != nil {
		return nil, err
	}
	if req.Permission == "" {
		req.Permission = store.SharePermissionViewOnly
	}
	if !validPermission(req.Permission) {
		return nil, ErrInvalidPermission
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, ErrInvalidExpiry
	}

	token, err := codes.GenerateShareToken(s.tokenByteLen)
	if err != nil {
		return nil, fmt.Errorf("generate share token: %w", err)
	}

	sh := &store.PatientShare{
		PatientID:  patientID,
		Token:      token,
		CreatedBy:  userID,
		SharedWith: req.SharedWith,
		Permission: req.Permission,
		ExpiresAt:  req.ExpiresAt,
	}
	if err := s.shares.Create(ctx, sh); err != nil {
		return nil, fmt.Errorf("create share: %w", err)
	}

	// A directed share tells the grantee about it.
	if req.SharedWith != nil {
		n := &store.Notification{
			UserID:    *req.SharedWith,
			Type:      store.NotificationTypeShareCreated,
			Title:     "اشتراک‌گذاری پرونده بیمار",
			Body:      fmt.Sprintf("پرونده «%s» با شما به اشتراک گذاشته شد.", p.FullName),
			PatientID: &patientID,
			ShareID:   &sh.ID,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			s.logger.Error("share notification failed", "user_id", *req.SharedWith, "error", err)
		}
	}
	return sh, nil
}

func (s *shareService) ListForPatient(ctx context.Context, userID, patientID uuid.UUID) ([]*store.PatientShare, error) {
	if _, err := s.access.CanManage(ctx, userID, patientID); err != nil {
		return nil, err
	}
	items, err := s.shares.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return items, nil
}

func (s *shareService) Revoke(ctx context.Context, userID, shareID uuid.UUID) error {
	sh, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrShareNotFound
		}
		return fmt.Errorf("get share: %w", err)
	}
	if _, err := s.access.CanManage(ctx, userID, sh.PatientID); err != nil {
		return err
	}
	if err := s.shares.Revoke(ctx, shareID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Already revoked.
			return nil
		}
		return fmt.Errorf("revoke share: %w", err)
	}
	return nil
}

func (s *shareService) ValidateToken(ctx context.Context, token string) (*Grant, error) {
	if token == "" {
		return nil, nil
	}
	sh, err := s.shares.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get share by token: %w", err)
	}
	if sh.Revoked {
		return nil, nil
	}
	if sh.ExpiresAt != nil && !sh.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	return &Grant{PatientID: sh.PatientID, Permission: sh.Permission}, nil
}

func (s *shareService) Resolve(ctx context.Context, token string) (*Snapshot, error) {
	grant, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, ErrShareNotFound
	}

	p, err := s.patients.GetByID(ctx, grant.PatientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	// A share to a soft-deleted patient resolves to nothing.
	if !p.IsActive {
		return nil, ErrShareNotFound
	}
	return &Snapshot{Patient: p, Permission: grant.Permission}, nil
}
