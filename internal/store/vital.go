package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Vital struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	VitalType  string    `json:"vital_type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	MeasuredAt time.Time `json:"measured_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type VitalStore struct{ pool *pgxpool.Pool }

func NewVitalStore(pool *pgxpool.Pool) *VitalStore {
	return &VitalStore{pool: pool}
}

const vitalCols = `id, patient_id, vital_type, value, unit, measured_at, created_at`

func scanVital(row pgx.Row) (*Vital, error) {
	var v Vital
	err := row.Scan(&v.ID, &v.PatientID, &v.VitalType, &v.Value, &v.Unit, &v.MeasuredAt, &v.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (s *VitalStore) Create(ctx context.Context, v *Vital) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO vitals (id, patient_id, vital_type, value, unit, measured_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		v.ID, v.PatientID, v.VitalType, v.Value, v.Unit, v.MeasuredAt)
	return err
}

func (s *VitalStore) GetByID(ctx context.Context, id uuid.UUID) (*Vital, error) {
	return scanVital(s.pool.QueryRow(ctx, `SELECT `+vitalCols+` FROM vitals WHERE id = $1`, id))
}

// List returns measurements for the patient, optionally filtered by type and
// measured_at range. Empty vitalType and zero times disable the filters.
func (s *VitalStore) List(ctx context.Context, patientID uuid.UUID, vitalType string, from, to time.Time, limit, offset int) ([]*Vital, int, error) {
	query := `SELECT ` + vitalCols + ` FROM vitals WHERE patient_id = $1`
	countQuery := `SELECT COUNT(*) FROM vitals WHERE patient_id = $1`
	args := []any{patientID}
	idx := 2

	if vitalType != "" {
		cond := fmt.Sprintf(` AND vital_type = $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, vitalType)
		idx++
	}
	if !from.IsZero() {
		cond := fmt.Sprintf(` AND measured_at >= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		cond := fmt.Sprintf(` AND measured_at <= $%d`, idx)
		query += cond
		countQuery += cond
		args = append(args, to)
		idx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY measured_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Vital, 0)
	for rows.Next() {
		v, err := scanVital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

// Delete removes the measurement. Vitals are hard-deleted.
func (s *VitalStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM vitals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
