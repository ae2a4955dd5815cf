package handler

import (
	"errors"
	"net/http"

	"github.com/rewards_ledger/model"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// reason returns the caller-facing message for an error. Internal errors are
// not echoed back verbatim.
func reason(err error, fallback string) string {
	if statusFor(err) == http.StatusInternalServerError {
		return fallback
	}
	return err.Error()
}
