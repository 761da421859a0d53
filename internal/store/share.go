package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Share permission levels.
const (
	SharePermissionViewOnly   = "view_only"
	SharePermissionEditAccess = "edit_access"
	SharePermissionFullAccess = "full_access"
)

type PatientShare struct {
	ID         uuid.UUID  `json:"id"`
	PatientID  uuid.UUID  `json:"patient_id"`
	Token      string     `json:"token"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	SharedWith *uuid.UUID `json:"shared_with"`
	Permission string     `json:"permission"`
	ExpiresAt  *time.Time `json:"expires_at"`
	Revoked    bool       `json:"revoked"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type ShareStore struct{ pool *pgxpool.Pool }

func NewShareStore(pool *pgxpool.Pool) *ShareStore {
	return &ShareStore{pool: pool}
}

const shareCols = `id, patient_id, token, created_by, shared_with, permission,
	expires_at, revoked, created_at, updated_at`

func scanShare(row pgx.Row) (*PatientShare, error) {
	var sh PatientShare
	err := row.Scan(&sh.ID, &sh.PatientID, &sh.Token, &sh.CreatedBy, &sh.SharedWith,
		&sh.Permission, &sh.ExpiresAt, &sh.Revoked, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &sh, nil
}

func (s *ShareStore) Create(ctx context.Context, sh *PatientShare) error {
	if sh.ID == uuid.Nil {
		sh.ID = uuid.New()
	}
	if sh.Permission == "" {
		sh.Permission = SharePermissionViewOnly
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO patient_shares (id, patient_id, token, created_by, shared_with, permission, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sh.ID, sh.PatientID, sh.Token, sh.CreatedBy, sh.SharedWith, sh.Permission, sh.ExpiresAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *ShareStore) GetByToken(ctx context.Context, token string) (*PatientShare, error) {
	return scanShare(s.pool.QueryRow(ctx,
		`SELECT `+shareCols+` FROM patient_shares WHERE token = $1`, token))
}

// GetActiveForUser returns the strongest live grant targeting the user for
// the patient: not revoked, not expired, shared_with = userID.
func (s *ShareStore) GetActiveForUser(ctx context.Context, patientID, userID uuid.UUID) (*PatientShare, error) {
	return scanShare(s.pool.QueryRow(ctx,
		`SELECT `+shareCols+` FROM patient_shares
		 WHERE patient_id = $1 AND shared_with = $2 AND revoked = false
		   AND (expires_at IS NULL OR expires_at > NOW())
		 ORDER BY CASE permission
		   WHEN 'full_access' THEN 0
		   WHEN 'edit_access' THEN 1
		   ELSE 2
		 END
		 LIMIT 1`,
		patientID, userID))
}

func (s *ShareStore) GetByID(ctx context.Context, id uuid.UUID) (*PatientShare, error) {
	return scanShare(s.pool.QueryRow(ctx,
		`SELECT `+shareCols+` FROM patient_shares WHERE id = $1`, id))
}

func (s *ShareStore) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientShare, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+shareCols+` FROM patient_shares WHERE patient_id = $1 ORDER BY created_at DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*PatientShare, 0)
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sh)
	}
	return items, rows.Err()
}

// Revoke flags the link revoked. Revocation is permanent.
func (s *ShareStore) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE patient_shares SET revoked=true, updated_at=NOW() WHERE id = $1 AND revoked = false`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
