package vitals

import "errors"

var (
	ErrVitalNotFound = errors.New("vital record not found")
	ErrInvalidInput  = errors.New("invalid vital data")
	ErrUnknownType   = errors.New("unknown vital type")
)
