package report

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
	counts store.AdherenceCounts
}

func (f *fakeIntakeStore) Adherence(_ context.Context, _ uuid.UUID, _, _ time.Time) (*store.AdherenceCounts, error) {
	c := f.counts
	return &c, nil
}

type fakeMedicineStore struct {
	meds []*store.Medicine

	gotLowQuantity int
	gotBefore      time.Time
}

func (f *fakeMedicineStore) ListExpiringOrLow(_ context.Context, _ uuid.UUID, lowQuantity int, before time.Time) ([]*store.Medicine, error) {
	f.gotLowQuantity = lowQuantity
	f.gotBefore = before
	if f.meds == nil {
		return []*store.Medicine{}, nil
	}
	return f.meds, nil
}

type fakeVitalStore struct {
	points []*store.Vital
}

func (f *fakeVitalStore) List(_ context.Context, _ uuid.UUID, _ string, _, _ time.Time, _, _ int) ([]*store.Vital, int, error) {
	return f.points, len(f.points), nil
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

// denyAll refuses every access check.
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

func TestAdherencePercent(t *testing.T) {
	tests := []struct {
		name   string
		counts store.AdherenceCounts
		want   float64
	}{
		{"all taken", store.AdherenceCounts{Taken: 10}, 100},
		{"half missed", store.AdherenceCounts{Taken: 5, Missed: 5}, 50},
		{"skipped ignored", store.AdherenceCounts{Taken: 3, Missed: 1, Skipped: 6}, 75},
		{"nothing to measure", store.AdherenceCounts{Skipped: 2, Pending: 4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&fakeIntakeStore{counts: tt.counts}, &fakeMedicineStore{}, &fakeVitalStore{}, allowAll{})

			r, err := svc.Adherence(context.Background(), uuid.New(), uuid.New(), time.Time{}, time.Time{})
			if err != nil {
				t.Fatalf("Adherence: %v", err)
			}
			if r.AdherencePercent != tt.want {
				t.Errorf("AdherencePercent = %v, want %v", r.AdherencePercent, tt.want)
			}
		})
	}
}

func TestAdherenceDefaultsRangeToLastThirtyDays(t *testing.T) {
	svc := New(&fakeIntakeStore{}, &fakeMedicineStore{}, &fakeVitalStore{}, allowAll{}).(*reportService)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	r, err := svc.Adherence(context.Background(), uuid.New(), uuid.New(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Adherence: %v", err)
	}
	if !r.To.Equal(fixed) {
		t.Errorf("To = %v, want %v", r.To, fixed)
	}
	if want := fixed.AddDate(0, 0, -30); !r.From.Equal(want) {
		t.Errorf("From = %v, want %v", r.From, want)
	}
}

func TestInventoryAppliesDefaults(t *testing.T) {
	ms := &fakeMedicineStore{}
	svc := New(&fakeIntakeStore{}, ms, &fakeVitalStore{}, allowAll{}).(*reportService)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	r, err := svc.Inventory(context.Background(), uuid.New(), uuid.New(), 0, 0)
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	if ms.gotLowQuantity != defaultLowQuantity {
		t.Errorf("lowQuantity = %d, want %d", ms.gotLowQuantity, defaultLowQuantity)
	}
	if want := fixed.AddDate(0, 0, defaultExpiryDays); !ms.gotBefore.Equal(want) {
		t.Errorf("expiringBefore = %v, want %v", ms.gotBefore, want)
	}
	if r.Medicines == nil {
		t.Error("Medicines should be non-nil even when empty")
	}
}

func TestVitalsSeriesIsOldestFirst(t *testing.T) {
	pid := uuid.New()
	newer := &store.Vital{ID: uuid.New(), PatientID: pid, VitalType: "blood_pressure", MeasuredAt: time.Now()}
	older := &store.Vital{ID: uuid.New(), PatientID: pid, VitalType: "blood_pressure", MeasuredAt: time.Now().Add(-time.Hour)}
	vs := &fakeVitalStore{points: []*store.Vital{newer, older}} // store order: newest first

	svc := New(&fakeIntakeStore{}, &fakeMedicineStore{}, vs, allowAll{})

	r, err := svc.Vitals(context.Background(), uuid.New(), pid, "blood_pressure", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Vitals: %v", err)
	}
	if len(r.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(r.Points))
	}
	if r.Points[0].ID != older.ID || r.Points[1].ID != newer.ID {
		t.Error("series should be oldest first")
	}
}

func TestReportsRequirePatientAccess(t *testing.T) {
	svc := New(&fakeIntakeStore{}, &fakeMedicineStore{}, &fakeVitalStore{}, denyAll{})

	if _, err := svc.Adherence(context.Background(), uuid.New(), uuid.New(), time.Time{}, time.Time{}); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("Adherence err = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.Inventory(context.Background(), uuid.New(), uuid.New(), 0, 0); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("Inventory err = %v, want ErrAccessDenied", err)
	}
	if _, err := svc.Vitals(context.Background(), uuid.New(), uuid.New(), "weight", time.Time{}, time.Time{}); !errors.Is(err, patient.ErrAccessDenied) {
		t.Errorf("Vitals err = %v, want ErrAccessDenied", err)
	}
}
