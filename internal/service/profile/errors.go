package profile

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrEmptyName        = errors.New("full name must not be empty")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrNoPassword       = errors.New("account has no password set")
	ErrAvatarTooLarge   = errors.New("avatar exceeds the maximum allowed size")
	ErrAvatarBadType    = errors.New("avatar must be a JPEG, PNG, or WebP image")
)
