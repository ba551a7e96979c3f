package core

import "errors"

// Failure taxonomy. Operations wrap these with the precondition that failed,
// e.g. fmt.Errorf("%w: destination table is not free", ErrConflict), so
// callers can both match with errors.Is and report the exact cause.
var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrOverpayment  = errors.New("payment exceeds remaining balance")

	ErrDBConn = errors.New("db connection failure")
	ErrMBConn = errors.New("message broker connection failure")
)
