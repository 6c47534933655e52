package domain

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("transaction not found")
	ErrInvalidTransition = errors.New("invalid state transition")
)
