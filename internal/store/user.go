package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  *string    `json:"-"`
	FullName      string     `json:"full_name"`
	Phone         *string    `json:"phone"`
	AvatarKey     *string    `json:"-"`
	EmailVerified bool       `json:"email_verified"`
	OAuthProvider *string    `json:"oauth_provider,omitempty"`
	OAuthSubject  *string    `json:"-"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type UserStore struct{ pool *pgxpool.Pool }

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userCols = `id, email, password_hash, full_name, phone, avatar_key,
	email_verified, oauth_provider, oauth_subject, status, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.AvatarKey,
		&u.EmailVerified, &u.OAuthProvider, &u.OAuthSubject, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = "active"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, phone, avatar_key,
			email_verified, oauth_provider, oauth_subject, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Phone, u.AvatarKey,
		u.EmailVerified, u.OAuthProvider, u.OAuthSubject, u.Status)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = lower($1)`, email))
}

func (s *UserStore) GetByOAuth(ctx context.Context, provider, subject string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE oauth_provider = $1 AND oauth_subject = $2`,
		provider, subject))
}

func (s *UserStore) Update(ctx context.Context, u *User) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET full_name=$2, phone=$3, avatar_key=$4, status=$5, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.FullName, u.Phone, u.AvatarKey, u.Status)
	return err
}

func (s *UserStore) LinkOAuth(ctx context.Context, id uuid.UUID, provider, subject string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET oauth_provider=$2, oauth_subject=$3, updated_at=NOW()
		WHERE id = $1`, id, provider, subject)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET email_verified=true, updated_at=NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) SetAvatarKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET avatar_key=$2, updated_at=NOW() WHERE id = $1`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
