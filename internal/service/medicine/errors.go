package medicine

import "errors"

var (
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrInvalidInput     = errors.New("invalid medicine data")
)
