package model

import "errors"

// Error taxonomy surfaced through the API. Wrap with %w and match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
