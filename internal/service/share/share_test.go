package share

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

type fakeShareStore struct {
	byToken map[string]*store.PatientShare
	byID    map[uuid.UUID]*store.PatientShare
}

func newFakeShareStore() *fakeShareStore {
	return &fakeShareStore{
		byToken: make(map[string]*store.PatientShare),
		byID:    make(map[uuid.UUID]*store.PatientShare),
	}
}

func (f *fakeShareStore) Create(_ context.Context, sh *store.PatientShare) error {
	if sh.ID == uuid.Nil {
		sh.ID = uuid.New()
	}
	cp := *sh
	f.byToken[sh.Token] = &cp
	f.byID[sh.ID] = &cp
	return nil
}

func (f *fakeShareStore) GetByToken(_ context.Context, token string) (*store.PatientShare, error) {
	sh, ok := f.byToken[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sh
	return &cp, nil
}

func (f *fakeShareStore) GetByID(_ context.Context, id uuid.UUID) (*store.PatientShare, error) {
	sh, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sh
	return &cp, nil
}

func (f *fakeShareStore) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*store.PatientShare, error) {
	items := make([]*store.PatientShare, 0)
	for _, sh := range f.byID {
		if sh.PatientID == patientID {
			cp := *sh
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (f *fakeShareStore) Revoke(_ context.Context, id uuid.UUID) error {
	sh, ok := f.byID[id]
	if !ok || sh.Revoked {
		return store.ErrNotFound
	}
	sh.Revoked = true
	f.byToken[sh.Token].Revoked = true
	return nil
}

type fakePatientStore struct {
	patients map[uuid.UUID]*store.Patient
}

func (f *fakePatientStore) GetByID(_ context.Context, id uuid.UUID) (*store.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

type fakeNotificationStore struct {
	sent []*store.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n *store.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	cp := *n
	f.sent = append(f.sent, &cp)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type allowAll struct{}

func (allowAll) CanAccess(_ context.Context, _, patientID uuid.UUID) (*store.Patient, error) {
	return &store.Patient{ID: patientID, IsActive: true}, nil
}

func (allowAll) CanModify(_ context.Context, _, patientID uuid.UUID) (*store.Patient, error) {
	return &store.Patient{ID: patientID, IsActive: true}, nil
}

func (allowAll) CanManage(_ context.Context, _, patientID uuid.UUID) (*store.Patient, error) {
	return &store.Patient{ID: patientID, IsActive: true}, nil
}

type denyAll struct{}

func (denyAll) CanAccess(_ context.Context, _, _ uuid.UUID) (*store.Patient, error) {
	return nil, patient.ErrAccessDenied
}

func (denyAll) CanModify(_ context.Context, _, _ uuid.UUID) (*store.Patient, error) {
	return nil, patient.ErrAccessDenied
}

func (denyAll) CanManage(_ context.Context, _, _ uuid.UUID) (*store.Patient, error) {
	return nil, patient.ErrAccessDenied
}

func newTestService(patients map[uuid.UUID]*store.Patient) (Service, *fakeShareStore, *fakeNotificationStore) {
	ss := newFakeShareStore()
	ns := &fakeNotificationStore{}
	return New(ss, &fakePatientStore{patients: patients}, allowAll{}, ns, discardLogger(), 24), ss, ns
}

func TestValidateTokenCases(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, _, _ := newTestService(map[uuid.UUID]*store.Patient{
		patientID: {ID: patientID, FullName: "بیمار", IsActive: true},
	})
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	valid, err := svc.Create(ctx, userID, patientID, CreateShareRequest{ExpiresAt: &future})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	forever, err := svc.Create(ctx, userID, patientID, CreateShareRequest{Permission: store.SharePermissionEditAccess})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	revoked, err := svc.Create(ctx, userID, patientID, CreateShareRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Revoke(ctx, userID, revoked.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	// A share that has since expired, inserted directly.
	ss := svc.(*shareService).shares.(*fakeShareStore)
	expired := &store.PatientShare{
		PatientID: patientID, Token: "expired-token", CreatedBy: userID,
		Permission: store.SharePermissionViewOnly, ExpiresAt: &past,
	}
	if err := ss.Create(ctx, expired); err != nil {
		t.Fatalf("insert expired share: %v", err)
	}

	tests := []struct {
		name      string
		token     string
		wantGrant bool
	}{
		{"unknown token", "no-such-token", false},
		{"revoked token", revoked.Token, false},
		{"expired token", expired.Token, false},
		{"valid with expiry", valid.Token, true},
		{"valid without expiry", forever.Token, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := svc.ValidateToken(ctx, tt.token)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if (g != nil) != tt.wantGrant {
				t.Errorf("grant = %v, want grant: %v", g, tt.wantGrant)
			}
			if g != nil && g.PatientID != patientID {
				t.Errorf("grant patient = %s, want %s", g.PatientID, patientID)
			}
		})
	}
}

func TestResolveReturnsSnapshot(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, _, _ := newTestService(map[uuid.UUID]*store.Patient{
		patientID: {ID: patientID, FullName: "مادربزرگ", IsActive: true},
	})
	ctx := context.Background()

	sh, err := svc.Create(ctx, userID, patientID, CreateShareRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	snap, err := svc.Resolve(ctx, sh.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.Patient.FullName != "مادربزرگ" {
		t.Errorf("patient name = %q", snap.Patient.FullName)
	}
	if snap.Permission != store.SharePermissionViewOnly {
		t.Errorf("permission = %q, want view_only", snap.Permission)
	}
}

func TestResolveHidesSoftDeletedPatient(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, _, _ := newTestService(map[uuid.UUID]*store.Patient{
		patientID: {ID: patientID, IsActive: false},
	})
	ctx := context.Background()

	sh, err := svc.Create(ctx, userID, patientID, CreateShareRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Resolve(ctx, sh.Token); err != ErrShareNotFound {
		t.Errorf("err = %v, want ErrShareNotFound", err)
	}
}

func TestCreateRejectsBadPermission(t *testing.T) {
	svc, _, _ := newTestService(nil)
	if _, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateShareRequest{Permission: "root"}); err != ErrInvalidPermission {
		t.Errorf("err = %v, want ErrInvalidPermission", err)
	}
}

func TestCreateNotifiesGrantee(t *testing.T) {
	patientID := uuid.New()
	owner := uuid.New()
	grantee := uuid.New()
	svc, _, ns := newTestService(map[uuid.UUID]*store.Patient{
		patientID: {ID: patientID, FullName: "مادربزرگ", IsActive: true},
	})
	ctx := context.Background()

	// An open link notifies nobody.
	if _, err := svc.Create(ctx, owner, patientID, CreateShareRequest{}); err != nil {
		t.Fatalf("create open share: %v", err)
	}
	if len(ns.sent) != 0 {
		t.Fatalf("open share must not notify, got %d notifications", len(ns.sent))
	}

	sh, err := svc.Create(ctx, owner, patientID, CreateShareRequest{
		SharedWith: &grantee,
		Permission: store.SharePermissionEditAccess,
	})
	if err != nil {
		t.Fatalf("create directed share: %v", err)
	}

	if len(ns.sent) != 1 {
		t.Fatalf("directed share must notify once, got %d", len(ns.sent))
	}
	n := ns.sent[0]
	if n.UserID != grantee {
		t.Errorf("notification user = %s, want grantee %s", n.UserID, grantee)
	}
	if n.Type != store.NotificationTypeShareCreated {
		t.Errorf("notification type = %q, want %q", n.Type, store.NotificationTypeShareCreated)
	}
	if n.ShareID == nil || *n.ShareID != sh.ID {
		t.Errorf("notification share_id = %v, want %s", n.ShareID, sh.ID)
	}
	if n.PatientID == nil || *n.PatientID != patientID {
		t.Errorf("notification patient_id = %v, want %s", n.PatientID, patientID)
	}
}

func TestShareOperationsNeedFullAccess(t *testing.T) {
	ss := newFakeShareStore()
	patientID := uuid.New()
	svc := New(ss, &fakePatientStore{}, denyAll{}, &fakeNotificationStore{}, discardLogger(), 24)

	if _, err := svc.Create(context.Background(), uuid.New(), patientID, CreateShareRequest{}); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("create err = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.ListForPatient(context.Background(), uuid.New(), patientID); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("list err = %v, want ErrAccessDenied", err)
	}
}
