package share

import "errors"

var (
	ErrShareNotFound     = errors.New("share link not found")
	ErrInvalidPermission = errors.New("invalid share permission")
	ErrInvalidExpiry     = errors.New("expiry must be in the future")
)
