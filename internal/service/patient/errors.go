package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrAccessDenied    = errors.New("access denied to this patient record")
	ErrInvalidInput    = errors.New("invalid patient data")
	ErrFamilyNotFound  = errors.New("family not found")
	ErrNotFamilyMember = errors.New("user is not a member of this family")
)
