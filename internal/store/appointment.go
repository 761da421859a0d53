package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Appointment status values.
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

type Appointment struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	Title           string    `json:"title"`
	DoctorName      *string   `json:"doctor_name"`
	Location        *string   `json:"location"`
	Notes           *string   `json:"notes"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	Status          string    `json:"status"`
	ReminderMinutes int       `json:"reminder_minutes"`
	ReminderSent    bool      `json:"reminder_sent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AppointmentStore struct{ pool *pgxpool.Pool }

func NewAppointmentStore(pool *pgxpool.Pool) *AppointmentStore {
	return &AppointmentStore{pool: pool}
}

const appointmentCols = `id, patient_id, title, doctor_name, location, notes,
	scheduled_at, status, reminder_minutes, reminder_sent, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.Title, &a.DoctorName, &a.Location, &a.Notes,
		&a.ScheduledAt, &a.Status, &a.ReminderMinutes, &a.ReminderSent, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *AppointmentStore) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AppointmentStatusScheduled
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, title, doctor_name, location, notes, scheduled_at, status, reminder_minutes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.Title, a.DoctorName, a.Location, a.Notes, a.ScheduledAt, a.Status, a.ReminderMinutes)
	return err
}

func (s *AppointmentStore) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

// ListByPatient returns appointments ordered soonest first. When upcomingOnly
// is set only appointments at or after now are returned.
func (s *AppointmentStore) ListByPatient(ctx context.Context, patientID uuid.UUID, upcomingOnly bool, limit, offset int) ([]*Appointment, int, error) {
	where := `patient_id = $1`
	if upcomingOnly {
		where += ` AND scheduled_at >= NOW()`
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE `+where, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE `+where+` ORDER BY scheduled_at ASC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// Update rewrites the editable fields. Rescheduling re-arms the reminder.
func (s *AppointmentStore) Update(ctx context.Context, a *Appointment) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments SET title=$2, doctor_name=$3, location=$4, notes=$5, scheduled_at=$6,
			status=$7, reminder_minutes=$8, reminder_sent=false, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Title, a.DoctorName, a.Location, a.Notes, a.ScheduledAt, a.Status, a.ReminderMinutes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AppointmentStore) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the appointment. Appointments are hard-deleted.
func (s *AppointmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDueReminders returns still-scheduled appointments whose reminder window
// has opened and whose reminder has not been sent yet.
func (s *AppointmentStore) ListDueReminders(ctx context.Context, now time.Time) ([]*Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments
		 WHERE reminder_minutes > 0
		   AND reminder_sent = false
		   AND status = 'scheduled'
		   AND scheduled_at > $1
		   AND scheduled_at - make_interval(mins => reminder_minutes) <= $1
		 ORDER BY scheduled_at ASC`,
		now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (s *AppointmentStore) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET reminder_sent=true, updated_at=NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
