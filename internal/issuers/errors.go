package issuers

import (
	"errors"
	"net/http"
)

// Domain errors for issuer operations.
var (
	ErrNotFound            = errors.New("issuer not found")
	ErrDuplicate           = errors.New("issuer email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// MapHTTPStatus maps issuer domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidRegistration):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
