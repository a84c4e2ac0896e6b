package domain

import "errors"

var (
	// ErrValidation marks input rejected before it reaches a store. Callers
	// wrap it with the field-level reason.
	ErrValidation    = errors.New("validation failed")
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvalidID     = errors.New("invalid ID")

	// The messages below are shown to clients as-is.
	ErrInvalidTerm        = errors.New("term must be one of W1, W2, S")
	ErrInvalidYear        = errors.New("year must be between 1 and 5")
	ErrInvalidEntryStatus = errors.New("invalid entry status")
)
