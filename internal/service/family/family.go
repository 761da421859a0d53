package family

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/store"
	"github.com/daruyar/daruyar_backend/pkg/authorize"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateFamilyRequest struct {
	Name string
}

type AddMemberRequest struct {
	Email string
	Role  string
}

// ---------------------------------------------------------------------------
// Store dependencies
// ---------------------------------------------------------------------------

type FamilyStore interface {
	Create(ctx context.Context, f *store.Family) error
	GetByID(ctx context.Context, id uuid.UUID) (*store.Family, error)
	Update(ctx context.Context, f *store.Family) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*store.Family, error)
	AddMember(ctx context.Context, m *store.FamilyMember) error
	GetMember(ctx context.Context, familyID, userID uuid.UUID) (*store.FamilyMember, error)
	UpdateMemberRole(ctx context.Context, familyID, userID uuid.UUID, role string) error
	RemoveMember(ctx context.Context, familyID, userID uuid.UUID) error
	ListMembers(ctx context.Context, familyID uuid.UUID) ([]*store.Membership, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*store.User, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *store.Notification) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateFamilyRequest) (*store.Family, error)
	GetByID(ctx context.Context, userID, familyID uuid.UUID) (*store.Family, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*store.Family, error)
	Rename(ctx context.Context, userID, familyID uuid.UUID, name string) (*store.Family, error)

	AddMember(ctx context.Context, actorID, familyID uuid.UUID, req AddMemberRequest) (*store.FamilyMember, error)
	ChangeRole(ctx context.Context, actorID, familyID, memberUserID uuid.UUID, role string) error
	RemoveMember(ctx context.Context, actorID, familyID, memberUserID uuid.UUID) error
	Leave(ctx context.Context, userID, familyID uuid.UUID) error
	ListMembers(ctx context.Context, userID, familyID uuid.UUID) ([]*store.Membership, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type familyService struct {
	families      FamilyStore
	users         UserStore
	notifications NotificationStore
	auth          authorize.IAuthorization
	logger        *slog.Logger
}

func New(families FamilyStore, users UserStore, notifications NotificationStore, auth authorize.IAuthorization, logger *slog.Logger) Service {
	return &familyService{
		families:      families,
		users:         users,
		notifications: notifications,
		auth:          auth,
		logger:        logger,
	}
}

func validRole(role string) bool {
	_, ok := authorize.FamilyMemberRoleToRBACRole[role]
	return ok
}

// syncRole mirrors a membership row into the Casbin grouping policies.
func (s *familyService) syncRole(ctx context.Context, userID, familyID uuid.UUID, role string, add bool) {
	rbacRole, ok := authorize.FamilyMemberRoleToRBACRole[role]
	if !ok {
		return
	}
	subject := authorize.GroupSubject(userID.String())
	domain := authorize.FamilyDomain(familyID.String())

	var err error
	if add {
		_, err = s.auth.AddRoleForUserInDomain(ctx, subject, rbacRole, domain)
	} else {
		_, err = s.auth.RemoveRoleForUserInDomain(ctx, subject, rbacRole, domain)
	}
	if err != nil {
		s.logger.Error("role sync failed",
			"user_id", userID, "family_id", familyID, "role", role, "add", add, "error", err)
	}
}

func (s *familyService) Create(ctx context.Context, userID uuid.UUID, req CreateFamilyRequest) (*store.Family, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	f := &store.Family{Name: name, CreatedBy: userID}
	if err := s.families.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create family: %w", err)
	}

	// The creator is the first owner.
	m := &store.FamilyMember{FamilyID: f.ID, UserID: userID, Role: authorize.FamilyMemberRoleOwner}
	if err := s.families.AddMember(ctx, m); err != nil {
		return nil, fmt.Errorf("add owner member: %w", err)
	}
	s.syncRole(ctx, userID, f.ID, authorize.FamilyMemberRoleOwner, true)
	return f, nil
}

// requireMember loads the caller's membership, mapping missing rows to
// ErrPermissionDenied so outsiders cannot probe family ids.
func (s *familyService) requireMember(ctx context.Context, familyID, userID uuid.UUID) (*store.FamilyMember, error) {
	m, err := s.families.GetMember(ctx, familyID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

// requireManager verifies the caller may manage members, via Casbin.
func (s *familyService) requireManager(ctx context.Context, familyID, userID uuid.UUID) error {
	if _, err := s.requireMember(ctx, familyID, userID); err != nil {
		return err
	}
	err := s.auth.MustEnforce(ctx,
		authorize.GroupSubject(userID.String()),
		authorize.FamilyDomain(familyID.String()),
		authorize.ResourceFamilyMember,
		authorize.ActionManage)
	if err != nil {
		if errors.Is(err, authorize.ErrForbidden) {
			return ErrPermissionDenied
		}
		return fmt.Errorf("enforce: %w", err)
	}
	return nil
}

func (s *familyService) GetByID(ctx context.Context, userID, familyID uuid.UUID) (*store.Family, error) {
	if _, err := s.requireMember(ctx, familyID, userID); err != nil {
		return nil, err
	}
	f, err := s.families.GetByID(ctx, familyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFamilyNotFound
		}
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *familyService) ListMine(ctx context.Context, userID uuid.UUID) ([]*store.Family, error) {
	items, err := s.families.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	return items, nil
}

func (s *familyService) Rename(ctx context.Context, userID, familyID uuid.UUID, name string) (*store.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if err := s.requireManager(ctx, familyID, userID); err != nil {
		return nil, err
	}

	f, err := s.families.GetByID(ctx, familyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFamilyNotFound
		}
		return nil, fmt.Errorf("get family: %w", err)
	}
	f.Name = name
	if err := s.families.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("rename family: %w", err)
	}
	return f, nil
}

func (s *familyService) AddMember(ctx context.Context, actorID, familyID uuid.UUID, req AddMemberRequest) (*store.FamilyMember, error) {
	if !validRole(req.Role) {
		return nil, ErrInvalidRole
	}
	if err := s.requireManager(ctx, familyID, actorID); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	m := &store.FamilyMember{FamilyID: familyID, UserID: u.ID, Role: req.Role}
	if err := s.families.AddMember(ctx, m); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("add member: %w", err)
	}
	s.syncRole(ctx, u.ID, familyID, req.Role, true)

	f, err := s.families.GetByID(ctx, familyID)
	if err == nil {
		n := &store.Notification{
			UserID:   u.ID,
			Type:     store.NotificationTypeFamilyInvite,
			Title:    "عضویت در گروه خانوادگی",
			Body:     fmt.Sprintf("شما به گروه خانوادگی «%s» اضافه شدید.", f.Name),
			FamilyID: &familyID,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			s.logger.Error("invite notification failed", "user_id", u.ID, "error", err)
		}
	}
	return m, nil
}

// countOwners tallies owner rows so the last owner can never be demoted or
// removed.
func (s *familyService) countOwners(ctx context.Context, familyID uuid.UUID) (int, error) {
	members, err := s.families.ListMembers(ctx, familyID)
	if err != nil {
		return 0, fmt.Errorf("list members: %w", err)
	}
	n := 0
	for _, m := range members {
		if m.Role == authorize.FamilyMemberRoleOwner {
			n++
		}
	}
	return n, nil
}

func (s *familyService) ChangeRole(ctx context.Context, actorID, familyID, memberUserID uuid.UUID, role string) error {
	if !validRole(role) {
		return ErrInvalidRole
	}
	if err := s.requireManager(ctx, familyID, actorID); err != nil {
		return err
	}

	m, err := s.families.GetMember(ctx, familyID, memberUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("get member: %w", err)
	}
	if m.Role == role {
		return nil
	}
	if m.Role == authorize.FamilyMemberRoleOwner {
		owners, err := s.countOwners(ctx, familyID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	if err := s.families.UpdateMemberRole(ctx, familyID, memberUserID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("update member role: %w", err)
	}
	s.syncRole(ctx, memberUserID, familyID, m.Role, false)
	s.syncRole(ctx, memberUserID, familyID, role, true)
	return nil
}

func (s *familyService) removeMemberRow(ctx context.Context, familyID, memberUserID uuid.UUID) error {
	m, err := s.families.GetMember(ctx, familyID, memberUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("get member: %w", err)
	}
	if m.Role == authorize.FamilyMemberRoleOwner {
		owners, err := s.countOwners(ctx, familyID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	if err := s.families.RemoveMember(ctx, familyID, memberUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("remove member: %w", err)
	}
	s.syncRole(ctx, memberUserID, familyID, m.Role, false)
	return nil
}

func (s *familyService) RemoveMember(ctx context.Context, actorID, familyID, memberUserID uuid.UUID) error {
	if err := s.requireManager(ctx, familyID, actorID); err != nil {
		return err
	}
	return s.removeMemberRow(ctx, familyID, memberUserID)
}

// Leave removes the caller's own membership. No manager role required.
func (s *familyService) Leave(ctx context.Context, userID, familyID uuid.UUID) error {
	if _, err := s.requireMember(ctx, familyID, userID); err != nil {
		return err
	}
	return s.removeMemberRow(ctx, familyID, userID)
}

func (s *familyService) ListMembers(ctx context.Context, userID, familyID uuid.UUID) ([]*store.Membership, error) {
	if _, err := s.requireMember(ctx, familyID, userID); err != nil {
		return nil, err
	}
	items, err := s.families.ListMembers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return items, nil
}

// RebuildGroupingPolicies reloads every membership row into Casbin. Called at
// startup since the policy model lives in memory.
func RebuildGroupingPolicies(ctx context.Context, auth authorize.IAuthorization, memberships []*store.FamilyMember, logger *slog.Logger) {
	for _, m := range memberships {
		role, ok := authorize.FamilyMemberRoleToRBACRole[m.Role]
		if !ok {
			logger.Warn("membership with unknown role", "family_id", m.FamilyID, "role", m.Role)
			continue
		}
		_, err := auth.AddRoleForUserInDomain(ctx,
			authorize.GroupSubject(m.UserID.String()), role, authorize.FamilyDomain(m.FamilyID.String()))
		if err != nil {
			logger.Error("grouping rebuild failed", "family_id", m.FamilyID, "user_id", m.UserID, "error", err)
		}
	}
}
