package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Intake status values.
const (
	IntakeStatusScheduled = "scheduled"
	IntakeStatusTaken     = "taken"
	IntakeStatusMissed    = "missed"
	IntakeStatusSkipped   = "skipped"
)

// Intake is one row of the append-only intake history. Rows are never
// updated or reconciled back into the schedule snapshot.
type Intake struct {
	ID            uuid.UUID  `json:"id"`
	ScheduleID    uuid.UUID  `json:"schedule_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	TakenTime     *time.Time `json:"taken_time"`
	Status        string     `json:"status"`
	Notes         *string    `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AdherenceCounts aggregates intake outcomes for reports.
type AdherenceCounts struct {
	Taken   int `json:"taken"`
	Missed  int `json:"missed"`
	Skipped int `json:"skipped"`
	Pending int `json:"pending"`
}

type IntakeStore struct{ pool *pgxpool.Pool }

func NewIntakeStore(pool *pgxpool.Pool) *IntakeStore {
	return &IntakeStore{pool: pool}
}

const intakeCols = `id, schedule_id, scheduled_time, taken_time, status, notes, created_at`

func scanIntake(row pgx.Row) (*Intake, error) {
	var in Intake
	err := row.Scan(&in.ID, &in.ScheduleID, &in.ScheduledTime, &in.TakenTime,
		&in.Status, &in.Notes, &in.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &in, nil
}

func (s *IntakeStore) Create(ctx context.Context, in *Intake) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.Status == "" {
		in.Status = IntakeStatusScheduled
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO medication_intake (id, schedule_id, scheduled_time, taken_time, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		in.ID, in.ScheduleID, in.ScheduledTime, in.TakenTime, in.Status, in.Notes)
	return err
}

// ListBySchedule returns intake history for one schedule, optionally bounded
// by a scheduled_time range. Zero time values disable the bound.
func (s *IntakeStore) ListBySchedule(ctx context.Context, scheduleID uuid.UUID, from, to time.Time, limit, offset int) ([]*Intake, int, error) {
	query := `SELECT ` + intakeCols + ` FROM medication_intake WHERE schedule_id = $1`
	countQuery := `SELECT COUNT(*) FROM medication_intake WHERE schedule_id = $1`
	args := []any{scheduleID}
	idx := 2

	if !from.IsZero() {
		cond := fmt.Sprintf(` AND scheduled_time >= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		cond := fmt.Sprintf(` AND scheduled_time <= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, to)
		idx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY scheduled_time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Intake, 0)
	for rows.Next() {
		in, err := scanIntake(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, in)
	}
	return items, total, rows.Err()
}

// ListByPatient joins through schedules to return intake history across all
// of the patient's medications.
func (s *IntakeStore) ListByPatient(ctx context.Context, patientID uuid.UUID, from, to time.Time, limit, offset int) ([]*Intake, int, error) {
	query := `SELECT i.id, i.schedule_id, i.scheduled_time, i.taken_time, i.status, i.notes, i.created_at
		FROM medication_intake i
		JOIN medication_schedules ms ON ms.id = i.schedule_id
		WHERE ms.patient_id = $1`
	countQuery := `SELECT COUNT(*)
		FROM medication_intake i
		JOIN medication_schedules ms ON ms.id = i.schedule_id
		WHERE ms.patient_id = $1`
	args := []any{patientID}
	idx := 2

	if !from.IsZero() {
		cond := fmt.Sprintf(` AND i.scheduled_time >= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		cond := fmt.Sprintf(` AND i.scheduled_time <= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, to)
		idx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY i.scheduled_time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Intake, 0)
	for rows.Next() {
		in, err := scanIntake(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, in)
	}
	return items, total, rows.Err()
}

// Adherence aggregates intake outcomes for the patient over a time range.
func (s *IntakeStore) Adherence(ctx context.Context, patientID uuid.UUID, from, to time.Time) (*AdherenceCounts, error) {
	var c AdherenceCounts
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE i.status = 'taken'),
			COUNT(*) FILTER (WHERE i.status = 'missed'),
			COUNT(*) FILTER (WHERE i.status = 'skipped'),
			COUNT(*) FILTER (WHERE i.status = 'scheduled')
		FROM medication_intake i
		JOIN medication_schedules ms ON ms.id = i.schedule_id
		WHERE ms.patient_id = $1 AND i.scheduled_time >= $2 AND i.scheduled_time <= $3`,
		patientID, from, to).Scan(&c.Taken, &c.Missed, &c.Skipped, &c.Pending)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
