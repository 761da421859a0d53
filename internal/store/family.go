package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Family struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FamilyMember struct {
	ID       uuid.UUID `json:"id"`
	FamilyID uuid.UUID `json:"family_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Membership pairs a member row with the user's display fields for listings.
type Membership struct {
	FamilyMember
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type FamilyStore struct{ pool *pgxpool.Pool }

func NewFamilyStore(pool *pgxpool.Pool) *FamilyStore {
	return &FamilyStore{pool: pool}
}

const familyCols = `id, name, created_by, created_at, updated_at`

func scanFamily(row pgx.Row) (*Family, error) {
	var f Family
	err := row.Scan(&f.ID, &f.Name, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (s *FamilyStore) Create(ctx context.Context, f *Family) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO families (id, name, created_by) VALUES ($1,$2,$3)`,
		f.ID, f.Name, f.CreatedBy)
	return err
}

func (s *FamilyStore) GetByID(ctx context.Context, id uuid.UUID) (*Family, error) {
	return scanFamily(s.pool.QueryRow(ctx,
		`SELECT `+familyCols+` FROM families WHERE id = $1`, id))
}

func (s *FamilyStore) Update(ctx context.Context, f *Family) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE families SET name=$2, updated_at=NOW() WHERE id = $1`, f.ID, f.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser returns every family the user belongs to.
func (s *FamilyStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Family, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT f.id, f.name, f.created_by, f.created_at, f.updated_at
		 FROM families f
		 JOIN family_members fm ON fm.family_id = f.id
		 WHERE fm.user_id = $1
		 ORDER BY f.created_at ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Family, 0)
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (s *FamilyStore) AddMember(ctx context.Context, m *FamilyMember) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO family_members (id, family_id, user_id, role) VALUES ($1,$2,$3,$4)`,
		m.ID, m.FamilyID, m.UserID, m.Role)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *FamilyStore) GetMember(ctx context.Context, familyID, userID uuid.UUID) (*FamilyMember, error) {
	var m FamilyMember
	err := s.pool.QueryRow(ctx,
		`SELECT id, family_id, user_id, role, created_at FROM family_members
		 WHERE family_id = $1 AND user_id = $2`,
		familyID, userID).Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *FamilyStore) UpdateMemberRole(ctx context.Context, familyID, userID uuid.UUID, role string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE family_members SET role=$3 WHERE family_id = $1 AND user_id = $2`,
		familyID, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FamilyStore) RemoveMember(ctx context.Context, familyID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM family_members WHERE family_id = $1 AND user_id = $2`,
		familyID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMembers returns member rows joined with user display fields.
func (s *FamilyStore) ListMembers(ctx context.Context, familyID uuid.UUID) ([]*Membership, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT fm.id, fm.family_id, fm.user_id, fm.role, fm.created_at, u.full_name, u.email
		 FROM family_members fm
		 JOIN users u ON u.id = fm.user_id
		 WHERE fm.family_id = $1
		 ORDER BY fm.created_at ASC`,
		familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Membership, 0)
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.JoinedAt, &m.FullName, &m.Email); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

// ListAllMemberships streams every membership row. Used at startup to rebuild
// the authorization grouping policies.
func (s *FamilyStore) ListAllMemberships(ctx context.Context) ([]*FamilyMember, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, family_id, user_id, role, created_at FROM family_members`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*FamilyMember, 0)
	for rows.Next() {
		var m FamilyMember
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}
