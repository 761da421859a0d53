package family

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/store"
	"github.com/daruyar/daruyar_backend/pkg/authorize"
)

type fakeFamilyStore struct {
	families map[uuid.UUID]*store.Family
	members  map[uuid.UUID]map[uuid.UUID]*store.FamilyMember // family -> user
}

func newFakeFamilyStore() *fakeFamilyStore {
	return &fakeFamilyStore{
		families: make(map[uuid.UUID]*store.Family),
		members:  make(map[uuid.UUID]map[uuid.UUID]*store.FamilyMember),
	}
}

func (f *fakeFamilyStore) Create(_ context.Context, fam *store.Family) error {
	if fam.ID == uuid.Nil {
		fam.ID = uuid.New()
	}
	cp := *fam
	f.families[fam.ID] = &cp
	return nil
}

func (f *fakeFamilyStore) GetByID(_ context.Context, id uuid.UUID) (*store.Family, error) {
	fam, ok := f.families[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *fam
	return &cp, nil
}

func (f *fakeFamilyStore) Update(_ context.Context, fam *store.Family) error {
	if _, ok := f.families[fam.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *fam
	f.families[fam.ID] = &cp
	return nil
}

func (f *fakeFamilyStore) ListForUser(_ context.Context, userID uuid.UUID) ([]*store.Family, error) {
	items := make([]*store.Family, 0)
	for famID, users := range f.members {
		if _, ok := users[userID]; ok {
			cp := *f.families[famID]
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (f *fakeFamilyStore) AddMember(_ context.Context, m *store.FamilyMember) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if f.members[m.FamilyID] == nil {
		f.members[m.FamilyID] = make(map[uuid.UUID]*store.FamilyMember)
	}
	if _, ok := f.members[m.FamilyID][m.UserID]; ok {
		return store.ErrDuplicate
	}
	cp := *m
	f.members[m.FamilyID][m.UserID] = &cp
	return nil
}

func (f *fakeFamilyStore) GetMember(_ context.Context, familyID, userID uuid.UUID) (*store.FamilyMember, error) {
	m, ok := f.members[familyID][userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeFamilyStore) UpdateMemberRole(_ context.Context, familyID, userID uuid.UUID, role string) error {
	m, ok := f.members[familyID][userID]
	if !ok {
		return store.ErrNotFound
	}
	m.Role = role
	return nil
}

func (f *fakeFamilyStore) RemoveMember(_ context.Context, familyID, userID uuid.UUID) error {
	if _, ok := f.members[familyID][userID]; !ok {
		return store.ErrNotFound
	}
	delete(f.members[familyID], userID)
	return nil
}

func (f *fakeFamilyStore) ListMembers(_ context.Context, familyID uuid.UUID) ([]*store.Membership, error) {
	items := make([]*store.Membership, 0)
	for _, m := range f.members[familyID] {
		items = append(items, &store.Membership{FamilyMember: *m})
	}
	return items, nil
}

type fakeUserStore struct {
	byEmail map[string]*store.User
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*store.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

type fakeNotificationStore struct {
	rows []*store.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n *store.Notification) error {
	cp := *n
	f.rows = append(f.rows, &cp)
	return nil
}

func newTestAuth(t *testing.T) authorize.IAuthorization {
	t.Helper()
	enforcer, err := authorize.NewEnforcer()
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	auth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		t.Fatalf("new authorization: %v", err)
	}
	if err := authorize.SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("seed policies: %v", err)
	}
	return auth
}

func newTestService(t *testing.T) (Service, *fakeFamilyStore, *fakeUserStore, *fakeNotificationStore) {
	t.Helper()
	fs := newFakeFamilyStore()
	us := &fakeUserStore{byEmail: make(map[string]*store.User)}
	ns := &fakeNotificationStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(fs, us, ns, newTestAuth(t), logger), fs, us, ns
}

func TestCreateMakesCreatorOwner(t *testing.T) {
	svc, fs, _, _ := newTestService(t)
	userID := uuid.New()

	f, err := svc.Create(context.Background(), userID, CreateFamilyRequest{Name: "خانواده احمدی"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m, ok := fs.members[f.ID][userID]
	if !ok {
		t.Fatal("creator has no membership row")
	}
	if m.Role != authorize.FamilyMemberRoleOwner {
		t.Errorf("creator role = %q, want owner", m.Role)
	}
}

func TestAddMemberAndNotify(t *testing.T) {
	svc, _, us, ns := newTestService(t)
	owner := uuid.New()
	invitee := &store.User{ID: uuid.New(), Email: "sara@example.com"}
	us.byEmail[invitee.Email] = invitee

	f, err := svc.Create(context.Background(), owner, CreateFamilyRequest{Name: "خانواده"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m, err := svc.AddMember(context.Background(), owner, f.ID, AddMemberRequest{
		Email: invitee.Email, Role: authorize.FamilyMemberRoleCaregiver,
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m.UserID != invitee.ID {
		t.Errorf("member user = %s, want %s", m.UserID, invitee.ID)
	}
	if len(ns.rows) != 1 || ns.rows[0].Type != store.NotificationTypeFamilyInvite {
		t.Fatalf("expected an invite notification, got %+v", ns.rows)
	}

	// Duplicate invite.
	if _, err := svc.AddMember(context.Background(), owner, f.ID, AddMemberRequest{
		Email: invitee.Email, Role: authorize.FamilyMemberRoleViewer,
	}); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("err = %v, want ErrAlreadyMember", err)
	}
}

func TestViewerCannotManageMembers(t *testing.T) {
	svc, _, us, _ := newTestService(t)
	owner := uuid.New()
	viewer := &store.User{ID: uuid.New(), Email: "viewer@example.com"}
	other := &store.User{ID: uuid.New(), Email: "other@example.com"}
	us.byEmail[viewer.Email] = viewer
	us.byEmail[other.Email] = other

	f, err := svc.Create(context.Background(), owner, CreateFamilyRequest{Name: "خانواده"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddMember(context.Background(), owner, f.ID, AddMemberRequest{
		Email: viewer.Email, Role: authorize.FamilyMemberRoleViewer,
	}); err != nil {
		t.Fatalf("add viewer: %v", err)
	}

	if _, err := svc.AddMember(context.Background(), viewer.ID, f.ID, AddMemberRequest{
		Email: other.Email, Role: authorize.FamilyMemberRoleViewer,
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("viewer add err = %v, want ErrPermissionDenied", err)
	}
}

func TestLastOwnerCannotLeave(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	owner := uuid.New()

	f, err := svc.Create(context.Background(), owner, CreateFamilyRequest{Name: "خانواده"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Leave(context.Background(), owner, f.ID); !errors.Is(err, ErrLastOwner) {
		t.Errorf("err = %v, want ErrLastOwner", err)
	}
}

func TestChangeRoleRejectsUnknown(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if err := svc.ChangeRole(context.Background(), uuid.New(), uuid.New(), uuid.New(), "boss"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("err = %v, want ErrInvalidRole", err)
	}
}
