package appointment

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidInput        = errors.New("invalid appointment data")
	ErrInvalidStatus       = errors.New("invalid appointment status")
)
