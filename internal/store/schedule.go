package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schedule status values. The status field is a mutable snapshot written only
// by explicit user actions; intake history lives in medication_intake.
const (
	ScheduleStatusPending = "pending"
	ScheduleStatusTaken   = "taken"
	ScheduleStatusMissed  = "missed"
	ScheduleStatusSkipped = "skipped"
)

type Schedule struct {
	ID            uuid.UUID  `json:"id"`
	MedicationID  uuid.UUID  `json:"medication_id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	Dosage        float64    `json:"dosage"`
	FrequencyType string     `json:"frequency_type"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	TimeSlots     []string   `json:"time_slots"`
	Status        string     `json:"status"`
	LastTaken     *time.Time `json:"last_taken"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ScheduleStore struct{ pool *pgxpool.Pool }

func NewScheduleStore(pool *pgxpool.Pool) *ScheduleStore {
	return &ScheduleStore{pool: pool}
}

const scheduleCols = `id, medication_id, patient_id, dosage, frequency_type,
	start_date, end_date, time_slots, status, last_taken, is_active, created_at, updated_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var sc Schedule
	err := row.Scan(&sc.ID, &sc.MedicationID, &sc.PatientID, &sc.Dosage, &sc.FrequencyType,
		&sc.StartDate, &sc.EndDate, &sc.TimeSlots, &sc.Status, &sc.LastTaken,
		&sc.IsActive, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &sc, nil
}

func (s *ScheduleStore) Create(ctx context.Context, sc *Schedule) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	if sc.Status == "" {
		sc.Status = ScheduleStatusPending
	}
	sc.IsActive = true
	_, err := s.pool.Exec(ctx, `
		INSERT INTO medication_schedules
			(id, medication_id, patient_id, dosage, frequency_type, start_date, end_date, time_slots, status, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,true)`,
		sc.ID, sc.MedicationID, sc.PatientID, sc.Dosage, sc.FrequencyType,
		sc.StartDate, sc.EndDate, sc.TimeSlots, sc.Status)
	return err
}

func (s *ScheduleStore) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return scanSchedule(s.pool.QueryRow(ctx,
		`SELECT `+scheduleCols+` FROM medication_schedules WHERE id = $1`, id))
}

// ListByPatient returns active schedules for the patient.
func (s *ScheduleStore) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM medication_schedules WHERE patient_id = $1 AND is_active = true`,
		patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+scheduleCols+` FROM medication_schedules
		 WHERE patient_id = $1 AND is_active = true
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Schedule, 0)
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, sc)
	}
	return items, total, rows.Err()
}

func (s *ScheduleStore) Update(ctx context.Context, sc *Schedule) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE medication_schedules SET dosage=$2, frequency_type=$3, start_date=$4,
			end_date=$5, time_slots=$6, updated_at=NOW()
		WHERE id = $1 AND is_active = true`,
		sc.ID, sc.Dosage, sc.FrequencyType, sc.StartDate, sc.EndDate, sc.TimeSlots)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus overwrites the status snapshot and last_taken together.
// lastTaken nil clears the column (ResetStatus), non-nil sets it (MarkTaken).
func (s *ScheduleStore) SetStatus(ctx context.Context, id uuid.UUID, status string, lastTaken *time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE medication_schedules SET status=$2, last_taken=$3, updated_at=NOW()
		WHERE id = $1 AND is_active = true`,
		id, status, lastTaken)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ScheduleStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE medication_schedules SET is_active=false, updated_at=NOW() WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
