package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

type fakeAppointmentStore struct {
	appointments map[uuid.UUID]*store.Appointment
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appointments: make(map[uuid.UUID]*store.Appointment)}
}

func (f *fakeAppointmentStore) Create(_ context.Context, a *store.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = store.AppointmentStatusScheduled
	}
	cp := *a
	f.appointments[a.ID] = &cp
	*a = cp
	return nil
}

func (f *fakeAppointmentStore) GetByID(_ context.Context, id uuid.UUID) (*store.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentStore) ListByPatient(_ context.Context, patientID uuid.UUID, upcomingOnly bool, limit, offset int) ([]*store.Appointment, int, error) {
	now := time.Now()
	items := make([]*store.Appointment, 0)
	for _, a := range f.appointments {
		if a.PatientID != patientID {
			continue
		}
		if upcomingOnly && a.ScheduledAt.Before(now) {
			continue
		}
		cp := *a
		items = append(items, &cp)
	}
	return items, len(items), nil
}

// Update re-arms the reminder, matching the SQL store.
func (f *fakeAppointmentStore) Update(_ context.Context, a *store.Appointment) error {
	if _, ok := f.appointments[a.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *a
	cp.ReminderSent = false
	f.appointments[a.ID] = &cp
	return nil
}

func (f *fakeAppointmentStore) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := f.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeAppointmentStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.appointments[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.appointments, id)
	return nil
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

func TestCreateAndGet(t *testing.T) {
	svc := New(newFakeAppointmentStore(), allowAll{})
	userID, patientID := uuid.New(), uuid.New()

	a, err := svc.Create(context.Background(), userID, patientID, CreateAppointmentRequest{
		Title:           "  ویزیت قلب ",
		ScheduledAt:     time.Now().Add(48 * time.Hour),
		ReminderMinutes: 60,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Fatal("create must assign an id")
	}
	if a.Title != "ویزیت قلب" {
		t.Errorf("title = %q, want trimmed", a.Title)
	}
	if a.Status != store.AppointmentStatusScheduled {
		t.Errorf("status = %q, want scheduled", a.Status)
	}

	got, err := svc.GetByID(context.Background(), userID, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != a.ID || got.ReminderMinutes != 60 {
		t.Errorf("get returned %+v, want created record", got)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := New(newFakeAppointmentStore(), allowAll{})
	future := time.Now().Add(time.Hour)

	cases := []struct {
		name string
		req  CreateAppointmentRequest
	}{
		{"empty title", CreateAppointmentRequest{Title: " ", ScheduledAt: future}},
		{"zero time", CreateAppointmentRequest{Title: "ویزیت"}},
		{"negative reminder", CreateAppointmentRequest{Title: "ویزیت", ScheduledAt: future, ReminderMinutes: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), tc.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestListUpcomingOnly(t *testing.T) {
	svc := New(newFakeAppointmentStore(), allowAll{})
	userID, patientID := uuid.New(), uuid.New()

	if _, err := svc.Create(context.Background(), userID, patientID, CreateAppointmentRequest{
		Title: "ویزیت گذشته", ScheduledAt: time.Now().Add(-24 * time.Hour),
	}); err != nil {
		t.Fatalf("create past: %v", err)
	}
	upcoming, err := svc.Create(context.Background(), userID, patientID, CreateAppointmentRequest{
		Title: "ویزیت آینده", ScheduledAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create upcoming: %v", err)
	}

	res, err := svc.List(context.Background(), userID, patientID, ListAppointmentsRequest{UpcomingOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].ID != upcoming.ID {
		t.Fatalf("upcoming filter returned %d items, want only the future appointment", len(res.Data))
	}
}

func TestSetStatus(t *testing.T) {
	svc := New(newFakeAppointmentStore(), allowAll{})
	userID, patientID := uuid.New(), uuid.New()

	a, err := svc.Create(context.Background(), userID, patientID, CreateAppointmentRequest{
		Title: "ویزیت", ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), userID, a.ID, "postponed"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}

	done, err := svc.SetStatus(context.Background(), userID, a.ID, store.AppointmentStatusCompleted)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if done.Status != store.AppointmentStatusCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}
}

func TestUpdateReArmsReminder(t *testing.T) {
	fs := newFakeAppointmentStore()
	svc := New(fs, allowAll{})
	userID, patientID := uuid.New(), uuid.New()

	a, err := svc.Create(context.Background(), userID, patientID, CreateAppointmentRequest{
		Title: "ویزیت", ScheduledAt: time.Now().Add(time.Hour), ReminderMinutes: 30,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	fs.appointments[a.ID].ReminderSent = true

	later := time.Now().Add(72 * time.Hour)
	updated, err := svc.Update(context.Background(), userID, a.ID, UpdateAppointmentRequest{ScheduledAt: &later})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ReminderSent {
		t.Error("rescheduling must clear reminder_sent")
	}
	if fs.appointments[a.ID].ReminderSent {
		t.Error("stored row must have reminder_sent cleared")
	}
}

func TestDeleteIsHard(t *testing.T) {
	fs := newFakeAppointmentStore()
	svc := New(fs, allowAll{})
	userID, patientID := uuid.New(), uuid.New()

	a, err := svc.Create(context.Background(), userID, patientID, CreateAppointmentRequest{
		Title: "ویزیت", ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), userID, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fs.appointments) != 0 {
		t.Error("appointments are hard-deleted")
	}
	if _, err := svc.GetByID(context.Background(), userID, a.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("get deleted err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestAppointmentsRequirePatientAccess(t *testing.T) {
	fs := newFakeAppointmentStore()
	owner := New(fs, allowAll{})
	stranger := New(fs, denyAll{})
	userID, patientID := uuid.New(), uuid.New()

	a, err := owner.Create(context.Background(), userID, patientID, CreateAppointmentRequest{
		Title: "ویزیت", ScheduledAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := stranger.GetByID(context.Background(), uuid.New(), a.ID); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("get err = %v, want ErrAccessDenied", err)
	}
	if err := stranger.Delete(context.Background(), uuid.New(), a.ID); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("delete err = %v, want ErrAccessDenied", err)
	}
}
