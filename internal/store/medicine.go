package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Medicine struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	DosageForm     string     `json:"dosage_form"`
	Strength       string     `json:"strength"`
	Quantity       int        `json:"quantity"`
	ExpirationDate *time.Time `json:"expiration_date"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type MedicineStore struct{ pool *pgxpool.Pool }

func NewMedicineStore(pool *pgxpool.Pool) *MedicineStore {
	return &MedicineStore{pool: pool}
}

const medicineCols = `id, patient_id, name, type, dosage_form, strength,
	quantity, expiration_date, is_active, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Type, &m.DosageForm, &m.Strength,
		&m.Quantity, &m.ExpirationDate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *MedicineStore) Create(ctx context.Context, m *Medicine) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.IsActive = true
	_, err := s.pool.Exec(ctx, `
		INSERT INTO medicines (id, patient_id, name, type, dosage_form, strength, quantity, expiration_date, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,true)`,
		m.ID, m.PatientID, m.Name, m.Type, m.DosageForm, m.Strength, m.Quantity, m.ExpirationDate)
	return err
}

func (s *MedicineStore) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(s.pool.QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
}

// ListByPatient returns active medicines for the patient, newest first.
func (s *MedicineStore) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Medicine, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM medicines WHERE patient_id = $1 AND is_active = true`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE patient_id = $1 AND is_active = true
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Medicine, 0)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (s *MedicineStore) Update(ctx context.Context, m *Medicine) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE medicines SET name=$2, type=$3, dosage_form=$4, strength=$5, quantity=$6,
			expiration_date=$7, updated_at=NOW()
		WHERE id = $1 AND is_active = true`,
		m.ID, m.Name, m.Type, m.DosageForm, m.Strength, m.Quantity, m.ExpirationDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MedicineStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE medicines SET is_active=false, updated_at=NOW() WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExpiringOrLow returns active medicines that are below the quantity
// threshold or expire before the given date. Used by inventory reports.
func (s *MedicineStore) ListExpiringOrLow(ctx context.Context, patientID uuid.UUID, lowQuantity int, expiringBefore time.Time) ([]*Medicine, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+medicineCols+` FROM medicines
		 WHERE patient_id = $1 AND is_active = true
		   AND (quantity <= $2 OR (expiration_date IS NOT NULL AND expiration_date <= $3))
		 ORDER BY expiration_date NULLS LAST, quantity ASC`,
		patientID, lowQuantity, expiringBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Medicine, 0)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
