package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
	// ErrStateConflict indicates the resource is not in a state that allows the operation.
	ErrStateConflict = errors.New("state conflict")
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal lacks access to the tenant or action.
	ErrForbidden = errors.New("forbidden")
)
