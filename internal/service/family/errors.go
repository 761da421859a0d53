package family

import "errors"

var (
	ErrFamilyNotFound   = errors.New("family not found")
	ErrMemberNotFound   = errors.New("family member not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyMember    = errors.New("user is already a member of this family")
	ErrNotMember        = errors.New("user is not a member of this family")
	ErrInvalidRole      = errors.New("invalid family role")
	ErrLastOwner        = errors.New("a family must keep at least one owner")
	ErrPermissionDenied = errors.New("not allowed to manage this family")
	ErrInvalidInput     = errors.New("invalid family data")
)
