package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Patient struct {
	ID          uuid.UUID  `json:"id"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender"`
	BloodType   *string    `json:"blood_type"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	FamilyID    *uuid.UUID `json:"family_id"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type PatientStore struct{ pool *pgxpool.Pool }

func NewPatientStore(pool *pgxpool.Pool) *PatientStore {
	return &PatientStore{pool: pool}
}

const patientCols = `id, full_name, date_of_birth, gender, blood_type,
	created_by, family_id, is_active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.DateOfBirth, &p.Gender, &p.BloodType,
		&p.CreatedBy, &p.FamilyID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *PatientStore) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IsActive = true
	_, err := s.pool.Exec(ctx, `
		INSERT INTO patients (id, full_name, date_of_birth, gender, blood_type, created_by, family_id, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,true)`,
		p.ID, p.FullName, p.DateOfBirth, p.Gender, p.BloodType, p.CreatedBy, p.FamilyID)
	return err
}

// GetByID returns the patient regardless of is_active; callers that must hide
// soft-deleted rows check the flag.
func (s *PatientStore) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(s.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

// ListByOwner returns active patients created by the user or belonging to any
// family the user is a member of.
func (s *PatientStore) ListByOwner(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	const where = `
		is_active = true AND (
			created_by = $1
			OR family_id IN (SELECT family_id FROM family_members WHERE user_id = $1)
		)`

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE `+where, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patients WHERE `+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// ListByFamily returns active patients attached to the family.
func (s *PatientStore) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*Patient, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patients WHERE family_id = $1 AND is_active = true ORDER BY created_at DESC`,
		familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (s *PatientStore) Update(ctx context.Context, p *Patient) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE patients SET full_name=$2, date_of_birth=$3, gender=$4, blood_type=$5, updated_at=NOW()
		WHERE id = $1 AND is_active = true`,
		p.ID, p.FullName, p.DateOfBirth, p.Gender, p.BloodType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete flags the patient inactive. The row and its children remain.
func (s *PatientStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE patients SET is_active=false, updated_at=NOW() WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PatientStore) SetFamily(ctx context.Context, patientID uuid.UUID, familyID *uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE patients SET family_id=$2, updated_at=NOW() WHERE id = $1 AND is_active = true`,
		patientID, familyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
