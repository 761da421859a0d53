package patient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/store"
)

type fakePatientStore struct {
	patients map[uuid.UUID]*store.Patient
}

func newFakePatientStore() *fakePatientStore {
	return &fakePatientStore{patients: make(map[uuid.UUID]*store.Patient)}
}

func (f *fakePatientStore) Create(_ context.Context, p *store.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IsActive = true
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakePatientStore) GetByID(_ context.Context, id uuid.UUID) (*store.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatientStore) ListByOwner(_ context.Context, userID uuid.UUID, limit, offset int) ([]*store.Patient, int, error) {
	items := make([]*store.Patient, 0)
	for _, p := range f.patients {
		if p.IsActive && p.CreatedBy == userID {
			cp := *p
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (f *fakePatientStore) ListByFamily(_ context.Context, familyID uuid.UUID) ([]*store.Patient, error) {
	items := make([]*store.Patient, 0)
	for _, p := range f.patients {
		if p.IsActive && p.FamilyID != nil && *p.FamilyID == familyID {
			cp := *p
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (f *fakePatientStore) Update(_ context.Context, p *store.Patient) error {
	cur, ok := f.patients[p.ID]
	if !ok || !cur.IsActive {
		return store.ErrNotFound
	}
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakePatientStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := f.patients[id]
	if !ok || !p.IsActive {
		return store.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (f *fakePatientStore) SetFamily(_ context.Context, patientID uuid.UUID, familyID *uuid.UUID) error {
	p, ok := f.patients[patientID]
	if !ok || !p.IsActive {
		return store.ErrNotFound
	}
	p.FamilyID = familyID
	return nil
}

type fakeMembershipStore struct {
	members map[uuid.UUID][]uuid.UUID // family -> users
}

func (f *fakeMembershipStore) GetMember(_ context.Context, familyID, userID uuid.UUID) (*store.FamilyMember, error) {
	for _, u := range f.members[familyID] {
		if u == userID {
			return &store.FamilyMember{FamilyID: familyID, UserID: userID, Role: "caregiver"}, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeShareGrantStore struct {
	grants []*store.PatientShare
}

// GetActiveForUser mirrors the SQL query: live directed grants only, the
// strongest one wins.
func (f *fakeShareGrantStore) GetActiveForUser(_ context.Context, patientID, userID uuid.UUID) (*store.PatientShare, error) {
	var best *store.PatientShare
	for _, sh := range f.grants {
		if sh.PatientID != patientID || sh.SharedWith == nil || *sh.SharedWith != userID {
			continue
		}
		if sh.Revoked || (sh.ExpiresAt != nil && sh.ExpiresAt.Before(time.Now())) {
			continue
		}
		if best == nil || permissionRank[sh.Permission] > permissionRank[best.Permission] {
			best = sh
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func TestCreateAndGet(t *testing.T) {
	svc := New(newFakePatientStore(), &fakeMembershipStore{}, &fakeShareGrantStore{})
	userID := uuid.New()

	p, err := svc.Create(context.Background(), userID, CreatePatientRequest{FullName: "مادربزرگ"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByID(context.Background(), userID, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName != "مادربزرگ" {
		t.Errorf("full name = %q", got.FullName)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc := New(newFakePatientStore(), &fakeMembershipStore{}, &fakeShareGrantStore{})
	if _, err := svc.Create(context.Background(), uuid.New(), CreatePatientRequest{FullName: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSoftDeleteHidesPatient(t *testing.T) {
	ps := newFakePatientStore()
	svc := New(ps, &fakeMembershipStore{}, &fakeShareGrantStore{})
	userID := uuid.New()

	p, err := svc.Create(context.Background(), userID, CreatePatientRequest{FullName: "علی"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), userID, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), userID, p.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("get after delete err = %v, want ErrPatientNotFound", err)
	}

	res, err := svc.List(context.Background(), userID, ListPatientsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Data) != 0 {
		t.Errorf("deleted patient still listed, got %d items", len(res.Data))
	}
	if res.Data == nil {
		t.Error("list must return an empty slice, not nil")
	}

	// The row itself survives the delete.
	if _, ok := ps.patients[p.ID]; !ok {
		t.Error("soft delete must keep the row")
	}
}

func TestAccessViaFamily(t *testing.T) {
	ps := newFakePatientStore()
	familyID := uuid.New()
	owner := uuid.New()
	relative := uuid.New()
	stranger := uuid.New()

	ms := &fakeMembershipStore{members: map[uuid.UUID][]uuid.UUID{
		familyID: {owner, relative},
	}}
	svc := New(ps, ms, &fakeShareGrantStore{})

	p, err := svc.Create(context.Background(), owner, CreatePatientRequest{FullName: "پدر", FamilyID: &familyID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), relative, p.ID); err != nil {
		t.Errorf("family member should see the patient: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), stranger, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("stranger err = %v, want ErrAccessDenied", err)
	}
}

func TestCreateInForeignFamilyDenied(t *testing.T) {
	svc := New(newFakePatientStore(), &fakeMembershipStore{}, &fakeShareGrantStore{})
	familyID := uuid.New()
	if _, err := svc.Create(context.Background(), uuid.New(), CreatePatientRequest{FullName: "x", FamilyID: &familyID}); !errors.Is(err, ErrNotFamilyMember) {
		t.Errorf("err = %v, want ErrNotFamilyMember", err)
	}
}

func TestAccessViaShareGrant(t *testing.T) {
	ps := newFakePatientStore()
	ss := &fakeShareGrantStore{}
	owner := uuid.New()
	grantee := uuid.New()
	svc := New(ps, &fakeMembershipStore{}, ss)

	p, err := svc.Create(context.Background(), owner, CreatePatientRequest{FullName: "پدربزرگ"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ss.grants = append(ss.grants, &store.PatientShare{
		ID:         uuid.New(),
		PatientID:  p.ID,
		CreatedBy:  owner,
		SharedWith: &grantee,
		Permission: store.SharePermissionViewOnly,
	})

	if _, err := svc.GetByID(context.Background(), grantee, p.ID); err != nil {
		t.Errorf("view_only grantee must read the patient: %v", err)
	}
	if _, err := svc.CanModify(context.Background(), grantee, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("view_only CanModify err = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.CanManage(context.Background(), grantee, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("view_only CanManage err = %v, want ErrAccessDenied", err)
	}
}

func TestShareGrantPermissionLevels(t *testing.T) {
	ps := newFakePatientStore()
	ss := &fakeShareGrantStore{}
	owner := uuid.New()
	svc := New(ps, &fakeMembershipStore{}, ss)

	p, err := svc.Create(context.Background(), owner, CreatePatientRequest{FullName: "مادر"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	editor := uuid.New()
	manager := uuid.New()
	ss.grants = append(ss.grants,
		&store.PatientShare{ID: uuid.New(), PatientID: p.ID, CreatedBy: owner, SharedWith: &editor, Permission: store.SharePermissionEditAccess},
		&store.PatientShare{ID: uuid.New(), PatientID: p.ID, CreatedBy: owner, SharedWith: &manager, Permission: store.SharePermissionFullAccess},
	)

	if _, err := svc.CanModify(context.Background(), editor, p.ID); err != nil {
		t.Errorf("edit_access CanModify: %v", err)
	}
	if _, err := svc.CanManage(context.Background(), editor, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("edit_access CanManage err = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.CanManage(context.Background(), manager, p.ID); err != nil {
		t.Errorf("full_access CanManage: %v", err)
	}
}

func TestRevokedOrExpiredShareDenied(t *testing.T) {
	ps := newFakePatientStore()
	ss := &fakeShareGrantStore{}
	owner := uuid.New()
	revokedUser := uuid.New()
	expiredUser := uuid.New()
	svc := New(ps, &fakeMembershipStore{}, ss)

	p, err := svc.Create(context.Background(), owner, CreatePatientRequest{FullName: "عمو"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	ss.grants = append(ss.grants,
		&store.PatientShare{ID: uuid.New(), PatientID: p.ID, CreatedBy: owner, SharedWith: &revokedUser, Permission: store.SharePermissionFullAccess, Revoked: true},
		&store.PatientShare{ID: uuid.New(), PatientID: p.ID, CreatedBy: owner, SharedWith: &expiredUser, Permission: store.SharePermissionFullAccess, ExpiresAt: &past},
	)

	if _, err := svc.GetByID(context.Background(), revokedUser, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("revoked share err = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.GetByID(context.Background(), expiredUser, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expired share err = %v, want ErrAccessDenied", err)
	}
}
