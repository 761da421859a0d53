package intake

import "errors"

var (
	ErrScheduleNotFound = errors.New("medication schedule not found")
	ErrInvalidStatus    = errors.New("invalid intake status")
)
