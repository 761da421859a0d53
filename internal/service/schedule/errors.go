package schedule

import "errors"

var (
	ErrScheduleNotFound = errors.New("medication schedule not found")
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrInvalidInput     = errors.New("invalid schedule data")
	ErrInvalidTimeSlot  = errors.New("time slots must be HH:MM values")
)
