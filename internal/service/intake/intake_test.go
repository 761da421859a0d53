package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/service/patient"
	"github.com/daruyar/daruyar_backend/internal/store"
)

type fakeIntakeStore struct {
	rows []*store.Intake
}

func (f *fakeIntakeStore) Create(_ context.Context, in *store.Intake) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.Status == "" {
		in.Status = store.IntakeStatusScheduled
	}
	cp := *in
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeIntakeStore) ListBySchedule(_ context.Context, scheduleID uuid.UUID, _, _ time.Time, limit, offset int) ([]*store.Intake, int, error) {
	items := make([]*store.Intake, 0)
	for _, in := range f.rows {
		if in.ScheduleID == scheduleID {
			cp := *in
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (f *fakeIntakeStore) ListByPatient(_ context.Context, _ uuid.UUID, _, _ time.Time, limit, offset int) ([]*store.Intake, int, error) {
	items := make([]*store.Intake, 0, len(f.rows))
	for _, in := range f.rows {
		cp := *in
		items = append(items, &cp)
	}
	return items, len(items), nil
}

type fakeScheduleStore struct {
	schedules map[uuid.UUID]*store.Schedule
}

func (f *fakeScheduleStore) GetByID(_ context.Context, id uuid.UUID) (*store.Schedule, error) {
	sc, ok := f.schedules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sc
	return &cp, nil
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

func newFixture(active bool) (Service, *fakeIntakeStore, uuid.UUID) {
	is := &fakeIntakeStore{}
	scheduleID := uuid.New()
	ss := &fakeScheduleStore{schedules: map[uuid.UUID]*store.Schedule{
		scheduleID: {ID: scheduleID, PatientID: uuid.New(), IsActive: active},
	}}
	return New(is, ss, allowAll{}), is, scheduleID
}

func TestLogAppendsRow(t *testing.T) {
	svc, is, scheduleID := newFixture(true)

	taken := time.Now()
	in, err := svc.Log(context.Background(), uuid.New(), scheduleID, LogIntakeRequest{
		TakenTime: &taken,
		Status:    store.IntakeStatusTaken,
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if in.ID == uuid.Nil {
		t.Fatal("log must assign an id")
	}
	if in.ScheduledTime.IsZero() {
		t.Error("zero scheduled_time must default to now")
	}
	if len(is.rows) != 1 || is.rows[0].Status != store.IntakeStatusTaken {
		t.Fatalf("expected one taken row, got %+v", is.rows)
	}
}

func TestLogRejectsUnknownStatus(t *testing.T) {
	svc, _, scheduleID := newFixture(true)

	_, err := svc.Log(context.Background(), uuid.New(), scheduleID, LogIntakeRequest{Status: "snoozed"})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestLogRejectsDeletedSchedule(t *testing.T) {
	svc, _, scheduleID := newFixture(false)

	_, err := svc.Log(context.Background(), uuid.New(), scheduleID, LogIntakeRequest{})
	if !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("err = %v, want ErrScheduleNotFound", err)
	}
}

func TestHistorySurvivesScheduleDeletion(t *testing.T) {
	svc, is, scheduleID := newFixture(false)
	is.rows = append(is.rows, &store.Intake{
		ID:         uuid.New(),
		ScheduleID: scheduleID,
		Status:     store.IntakeStatusTaken,
	})

	res, err := svc.HistoryBySchedule(context.Background(), uuid.New(), scheduleID, HistoryRequest{})
	if err != nil {
		t.Fatalf("history on deleted schedule: %v", err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("history returned %d rows, want 1", len(res.Data))
	}
}

func TestHistoryPaginationDefaults(t *testing.T) {
	svc, _, scheduleID := newFixture(true)

	res, err := svc.HistoryBySchedule(context.Background(), uuid.New(), scheduleID, HistoryRequest{Page: -3, PerPage: 10_000})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if res.Page != 1 || res.PerPage != 50 {
		t.Errorf("page/per_page = %d/%d, want defaults 1/50", res.Page, res.PerPage)
	}
}

func TestHistoryRequiresPatientAccess(t *testing.T) {
	is := &fakeIntakeStore{}
	scheduleID := uuid.New()
	ss := &fakeScheduleStore{schedules: map[uuid.UUID]*store.Schedule{
		scheduleID: {ID: scheduleID, PatientID: uuid.New(), IsActive: true},
	}}
	svc := New(is, ss, denyAll{})

	if _, err := svc.HistoryBySchedule(context.Background(), uuid.New(), scheduleID, HistoryRequest{}); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("by schedule err = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.HistoryByPatient(context.Background(), uuid.New(), uuid.New(), HistoryRequest{}); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("by patient err = %v, want ErrAccessDenied", err)
	}
}
