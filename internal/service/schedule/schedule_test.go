package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daruyar/daruyar_backend/internal/store"
)

type fakeScheduleStore struct {
	schedules map[uuid.UUID]*store.Schedule
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{schedules: make(map[uuid.UUID]*store.Schedule)}
}

func (f *fakeScheduleStore) Create(_ context.Context, sc *store.Schedule) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	if sc.Status == "" {
		sc.Status = store.ScheduleStatusPending
	}
	sc.IsActive = true
	cp := *sc
	f.schedules[sc.ID] = &cp
	return nil
}

func (f *fakeScheduleStore) GetByID(_ context.Context, id uuid.UUID) (*store.Schedule, error) {
	sc, ok := f.schedules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (f *fakeScheduleStore) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*store.Schedule, int, error) {
	items := make([]*store.Schedule, 0)
	for _, sc := range f.schedules {
		if sc.IsActive && sc.PatientID == patientID {
			cp := *sc
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (f *fakeScheduleStore) Update(_ context.Context, sc *store.Schedule) error {
	cur, ok := f.schedules[sc.ID]
	if !ok || !cur.IsActive {
		return store.ErrNotFound
	}
	cp := *sc
	f.schedules[sc.ID] = &cp
	return nil
}

func (f *fakeScheduleStore) SetStatus(_ context.Context, id uuid.UUID, status string, lastTaken *time.Time) error {
	sc, ok := f.schedules[id]
	if !ok || !sc.IsActive {
		return store.ErrNotFound
	}
	sc.Status = status
	sc.LastTaken = lastTaken
	return nil
}

func (f *fakeScheduleStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	sc, ok := f.schedules[id]
	if !ok || !sc.IsActive {
		return store.ErrNotFound
	}
	sc.IsActive = false
	return nil
}

type fakeMedicineStore struct {
	medicines map[uuid.UUID]*store.Medicine
}

func (f *fakeMedicineStore) GetByID(_ context.Context, id uuid.UUID) (*store.Medicine, error) {
	m, ok := f.medicines[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m, nil
}

type fakeIntakeStore struct {
	rows    []*store.Intake
	failErr error
}

func (f *fakeIntakeStore) Create(_ context.Context, in *store.Intake) error {
	if f.failErr != nil {
		return f.failErr
	}
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	cp := *in
	f.rows = append(f.rows, &cp)
	return nil
}

// allowAll grants every user access to every patient.
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

func newTestService(patientID uuid.UUID) (Service, *fakeScheduleStore, *fakeMedicineStore, *fakeIntakeStore) {
	ss := newFakeScheduleStore()
	ms := &fakeMedicineStore{medicines: map[uuid.UUID]*store.Medicine{}}
	is := &fakeIntakeStore{}
	svc := New(ss, ms, is, allowAll{})
	return svc, ss, ms, is
}

func addMedicine(ms *fakeMedicineStore, patientID uuid.UUID) uuid.UUID {
	id := uuid.New()
	ms.medicines[id] = &store.Medicine{ID: id, PatientID: patientID, Name: "آموکسی‌سیلین", IsActive: true}
	return id
}

func TestCreateAndListDailySchedule(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, _, ms, _ := newTestService(patientID)
	medID := addMedicine(ms, patientID)

	sc, err := svc.Create(context.Background(), userID, patientID, CreateScheduleRequest{
		MedicationID:  medID,
		Dosage:        1,
		FrequencyType: "daily",
		StartDate:     time.Now(),
		TimeSlots:     []string{"08:00"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sc.Status != store.ScheduleStatusPending {
		t.Errorf("new schedule status = %q, want pending", sc.Status)
	}

	res, err := svc.List(context.Background(), userID, patientID, ListSchedulesRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Data) != 1 {
		t.Fatalf("list returned %d schedules, want 1", len(res.Data))
	}
}

func TestCreateRejectsBadTimeSlot(t *testing.T) {
	patientID := uuid.New()
	svc, _, ms, _ := newTestService(patientID)
	medID := addMedicine(ms, patientID)

	_, err := svc.Create(context.Background(), uuid.New(), patientID, CreateScheduleRequest{
		MedicationID: medID,
		Dosage:       1,
		StartDate:    time.Now(),
		TimeSlots:    []string{"25:99"},
	})
	if !errors.Is(err, ErrInvalidTimeSlot) {
		t.Errorf("err = %v, want ErrInvalidTimeSlot", err)
	}
}

func TestCreateRejectsForeignMedicine(t *testing.T) {
	patientID := uuid.New()
	svc, _, ms, _ := newTestService(patientID)
	medID := addMedicine(ms, uuid.New()) // belongs to another patient

	_, err := svc.Create(context.Background(), uuid.New(), patientID, CreateScheduleRequest{
		MedicationID: medID,
		Dosage:       1,
		StartDate:    time.Now(),
	})
	if !errors.Is(err, ErrMedicineNotFound) {
		t.Errorf("err = %v, want ErrMedicineNotFound", err)
	}
}

func TestMarkTakenThenReset(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, _, ms, is := newTestService(patientID)
	medID := addMedicine(ms, patientID)

	sc, err := svc.Create(context.Background(), userID, patientID, CreateScheduleRequest{
		MedicationID: medID, Dosage: 1, FrequencyType: "daily",
		StartDate: time.Now(), TimeSlots: []string{"08:00"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	taken, err := svc.MarkTaken(context.Background(), userID, sc.ID)
	if err != nil {
		t.Fatalf("mark taken: %v", err)
	}
	if taken.Status != store.ScheduleStatusTaken {
		t.Errorf("status = %q, want taken", taken.Status)
	}
	if taken.LastTaken == nil {
		t.Error("last_taken must be set after MarkTaken")
	}
	if len(is.rows) != 1 || is.rows[0].Status != store.IntakeStatusTaken {
		t.Fatalf("expected one taken intake row, got %+v", is.rows)
	}

	reset, err := svc.ResetStatus(context.Background(), userID, sc.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Status != store.ScheduleStatusPending || reset.LastTaken != nil {
		t.Errorf("after reset: status = %q last_taken = %v, want pending/nil", reset.Status, reset.LastTaken)
	}
	// Reset never rewrites history.
	if len(is.rows) != 1 {
		t.Errorf("reset must not touch the intake log, got %d rows", len(is.rows))
	}
}

func TestTakenStatusVisibleInList(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, _, ms, _ := newTestService(patientID)
	medID := addMedicine(ms, patientID)

	sc, err := svc.Create(context.Background(), userID, patientID, CreateScheduleRequest{
		MedicationID: medID, Dosage: 1, FrequencyType: "daily",
		StartDate: time.Now(), TimeSlots: []string{"08:00"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.MarkTaken(context.Background(), userID, sc.ID); err != nil {
		t.Fatalf("mark taken: %v", err)
	}

	res, err := svc.List(context.Background(), userID, patientID, ListSchedulesRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].Status != store.ScheduleStatusTaken {
		t.Fatalf("list after mark taken = %+v, want one taken schedule", res.Data)
	}
}

func TestMarkMissedLogsWithoutTakenTime(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, _, ms, is := newTestService(patientID)
	medID := addMedicine(ms, patientID)

	sc, err := svc.Create(context.Background(), userID, patientID, CreateScheduleRequest{
		MedicationID: medID, Dosage: 2, StartDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	missed, err := svc.MarkMissed(context.Background(), userID, sc.ID)
	if err != nil {
		t.Fatalf("mark missed: %v", err)
	}
	if missed.Status != store.ScheduleStatusMissed || missed.LastTaken != nil {
		t.Errorf("missed snapshot wrong: %q %v", missed.Status, missed.LastTaken)
	}
	if len(is.rows) != 1 || is.rows[0].TakenTime != nil {
		t.Fatalf("missed intake row must have nil taken_time, got %+v", is.rows)
	}
}

func TestDeletedScheduleIsGone(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, _, ms, _ := newTestService(patientID)
	medID := addMedicine(ms, patientID)

	sc, err := svc.Create(context.Background(), userID, patientID, CreateScheduleRequest{
		MedicationID: medID, Dosage: 1, StartDate: time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), userID, sc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), userID, sc.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("err = %v, want ErrScheduleNotFound", err)
	}
	if _, err := svc.MarkTaken(context.Background(), userID, sc.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("mark taken on deleted err = %v, want ErrScheduleNotFound", err)
	}
}

func TestMarkTakenKeepsStatusWhenLogFails(t *testing.T) {
	patientID := uuid.New()
	userID := uuid.New()
	svc, ss, ms, is := newTestService(patientID)
	medID := addMedicine(ms, patientID)

	sc, err := svc.Create(context.Background(), userID, patientID, CreateScheduleRequest{
		MedicationID: medID, Dosage: 1, FrequencyType: "daily",
		StartDate: time.Now(), TimeSlots: []string{"08:00"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	is.failErr = errors.New("connection reset")
	if _, err := svc.MarkTaken(context.Background(), userID, sc.ID); err == nil {
		t.Fatal("mark taken must fail when the intake row cannot be written")
	}

	// The snapshot never moves ahead of the log.
	cur, err := ss.GetByID(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cur.Status != store.ScheduleStatusPending || cur.LastTaken != nil {
		t.Errorf("after failed log: status = %q last_taken = %v, want pending/nil", cur.Status, cur.LastTaken)
	}
	if len(is.rows) != 0 {
		t.Errorf("failed log must leave no rows, got %d", len(is.rows))
	}
}
