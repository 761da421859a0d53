package auth

import "errors"

var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrCodeExpired        = errors.New("verification code has expired or does not exist")
	ErrCodeInvalid        = errors.New("verification code is incorrect")
	ErrCodeMaxAttempts    = errors.New("too many incorrect verification attempts")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrAccountSuspended   = errors.New("account is suspended")
	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrAccountLocked      = errors.New("account temporarily locked due to repeated login failures")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrResetTokenInvalid  = errors.New("password reset token is invalid or expired")
	ErrUnknownProvider    = errors.New("unknown OAuth provider")
	ErrOAuthNoEmail       = errors.New("OAuth provider returned no email address")
)
