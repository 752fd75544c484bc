package services

import "errors"

var (
	// ErrInvalidInput means the trip sequence itself could not be obtained.
	// Nothing is computed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidParameter means a percentile, k or ordering argument is
	// outside its domain.
	ErrInvalidParameter = errors.New("invalid parameter")
)
