package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	"github.com/daruyar/daruyar_backend/internal/store"
	"github.com/daruyar/daruyar_backend/pkg/s3"
	"github.com/daruyar/daruyar_backend/pkg/util/password"
)

const (
	// MaxAvatarSize caps avatar uploads at 5 MiB.
	MaxAvatarSize = 5 << 20

	// defaultPhoneRegion is used when a phone number carries no country code.
	defaultPhoneRegion = "IR"
)

var avatarContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Profile is the user's own view of their account. AvatarURL is a presigned
// link, empty when no avatar has been uploaded.
type Profile struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Phone         *string   `json:"phone,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	OAuthProvider *string   `json:"oauth_provider,omitempty"`
}

type UpdateProfileRequest struct {
	FullName *string
	Phone    *string // empty string clears the number
}

type ChangePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
}

type UploadAvatarRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	Update(ctx context.Context, u *store.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetAvatarKey(ctx context.Context, id uuid.UUID, key string) error
}

type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignDownload(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*Profile, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	UploadAvatar(ctx context.Context, userID uuid.UUID, req UploadAvatarRequest) (*Profile, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type profileService struct {
	users      UserStore
	storage    ObjectStorage
	passParams *password.Params
}

func New(users UserStore, storage ObjectStorage, passParams *password.Params) Service {
	return &profileService{users: users, storage: storage, passParams: passParams}
}

func (s *profileService) load(ctx context.Context, userID uuid.UUID) (*store.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *profileService) toProfile(ctx context.Context, u *store.User) *Profile {
	p := &Profile{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Phone:         u.Phone,
		EmailVerified: u.EmailVerified,
		OAuthProvider: u.OAuthProvider,
	}
	if u.AvatarKey != nil {
		// Presign failures leave the URL empty rather than failing the read.
		if url, err := s.storage.PresignDownload(ctx, *u.AvatarKey); err == nil {
			p.AvatarURL = url
		}
	}
	return p
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toProfile(ctx, u), nil
}

// normalizePhone parses and formats to E.164. Numbers without a country code
// are assumed to be Iranian.
func normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*Profile, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, ErrEmptyName
		}
		u.FullName = name
	}
	if req.Phone != nil {
		if strings.TrimSpace(*req.Phone) == "" {
			u.Phone = nil
		} else {
			normalized, err := normalizePhone(*req.Phone)
			if err != nil {
				return nil, err
			}
			u.Phone = &normalized
		}
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.toProfile(ctx, u), nil
}

func (s *profileService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return ErrPasswordTooShort
	}

	u, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if u.PasswordHash == nil {
		return ErrNoPassword
	}
	if err := password.Verify(*u.PasswordHash, req.CurrentPassword); err != nil {
		return ErrWrongPassword
	}

	newHash, err := password.HashWithParams(req.NewPassword, s.passParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *profileService) UploadAvatar(ctx context.Context, userID uuid.UUID, req UploadAvatarRequest) (*Profile, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Size <= 0 || req.Size > MaxAvatarSize {
		return nil, ErrAvatarTooLarge
	}
	if !avatarContentTypes[req.ContentType] {
		return nil, ErrAvatarBadType
	}

	key := s3.AvatarKey(userID, req.FileName)
	if err := s.storage.Upload(ctx, key, req.ContentType, req.Body, req.Size); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	old := u.AvatarKey
	if err := s.users.SetAvatarKey(ctx, userID, key); err != nil {
		return nil, fmt.Errorf("set avatar key: %w", err)
	}
	// The replaced object is garbage once the row points elsewhere.
	if old != nil && *old != key {
		_ = s.storage.Delete(ctx, *old)
	}

	u.AvatarKey = &key
	return s.toProfile(ctx, u), nil
}
