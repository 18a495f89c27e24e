// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/commesse/internal/shared"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound      = shared.ErrNotFound
	ErrValidation    = shared.ErrValidation
	ErrStateConflict = shared.ErrStateConflict
	ErrForbidden     = shared.ErrForbidden
	ErrUnauthorized  = shared.ErrUnauthorized
	ErrDuplicate     = shared.ErrIdempotencyConflict
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrStateConflict):
		Problem(w, http.StatusConflict, "State Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
