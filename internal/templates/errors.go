package templates

import (
	"errors"
	"net/http"
)

// Domain errors for template operations.
var (
	ErrNotFound             = errors.New("template not found")
	ErrDuplicate            = errors.New("template already exists")
	ErrForbidden            = errors.New("template belongs to another issuer")
	ErrNoFields             = errors.New("template requires at least one field")
	ErrNoIdentifiableFields = errors.New("template requires at least one identifiable field")
	ErrDuplicateFieldKey    = errors.New("duplicate field key")
	ErrInvalidField         = errors.New("invalid field definition")
	ErrInvalidTemplate      = errors.New("invalid template")
	ErrFileTooLarge         = errors.New("image exceeds maximum upload size")
)

// MapHTTPStatus maps template domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNoFields),
		errors.Is(err, ErrNoIdentifiableFields),
		errors.Is(err, ErrDuplicateFieldKey),
		errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrInvalidTemplate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
