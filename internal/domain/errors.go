package domain

import "errors"

// Error kinds. Callers wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrGateway    = errors.New("payment gateway failure")
	ErrInternal   = errors.New("internal error")
)
